/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"context"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/nodeidentifier/pkg/logger"
)

var (
	// ErrDstMustBeNonNilPointer indicates that the destination must be a non-nil pointer.
	ErrDstMustBeNonNilPointer = errors.New("dst must be a non-nil pointer")
	// ErrDstMustBePointerToStruct indicates that the destination must be a pointer to a struct.
	ErrDstMustBePointerToStruct = errors.New("dst must be a pointer to a struct")
)

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// EnvConfigLoader loads configuration from environment variables.
// Nested struct fields are joined with underscores, so with prefix NODE_IDENTIFIER_
// the variable NODE_IDENTIFIER_STORE_REDIS_URL maps to cfg.Store.Redis.URL.
// A complete JSON document in <prefix>CONFIG_JSON takes precedence over individual variables.
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string
}

// NewEnvConfigLoader creates a new environment variable config loader.
func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	return &EnvConfigLoader{
		logger: log,
		prefix: prefix,
	}
}

// Load implements ConfigLoader by reading from environment variables.
func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	if e.logger != nil {
		e.logger.Debug().Msg("Loading configuration from environment variables")
	}

	if jsonConfig := os.Getenv(e.prefix + "CONFIG_JSON"); jsonConfig != "" {
		if err := json.Unmarshal([]byte(jsonConfig), dst); err != nil {
			return fmt.Errorf("failed to unmarshal CONFIG_JSON: %w", err)
		}

		if e.logger != nil {
			e.logger.Info().Msg("Loaded configuration from CONFIG_JSON environment variable")
		}

		return nil
	}

	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	if _, err := e.loadStruct(v, e.prefix); err != nil {
		return err
	}

	if e.logger != nil {
		e.logger.Info().Msg("Successfully loaded configuration from environment variables")
	}

	return nil
}

// loadStruct fills v from the environment and reports whether any variable applied.
func (e *EnvConfigLoader) loadStruct(v reflect.Value, prefix string) (bool, error) {
	t := v.Type()
	applied := false

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		jsonTag := fieldType.Tag.Get("json")
		if jsonTag == "" || jsonTag == "-" {
			continue
		}

		fieldName := strings.Split(jsonTag, ",")[0]
		envName := e.buildEnvName(prefix, fieldName)

		set, err := e.setFieldValue(field, envName)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn().
					Str("field", fieldName).
					Str("env", envName).
					Err(err).
					Msg("Failed to set field from environment variable")
			}

			continue
		}

		applied = applied || set
	}

	return applied, nil
}

func (*EnvConfigLoader) buildEnvName(prefix, fieldName string) string {
	envName := strings.ToUpper(fieldName)
	envName = strings.ReplaceAll(envName, ".", "_")

	return prefix + envName
}

func (e *EnvConfigLoader) setFieldValue(field reflect.Value, envName string) (bool, error) {
	if isNestedStruct(field) {
		return e.loadNestedStruct(field, envName+"_")
	}

	envValue, ok := os.LookupEnv(envName)
	if !ok || envValue == "" {
		return false, nil
	}

	if err := e.setFieldByKind(field, envName, envValue); err != nil {
		return false, err
	}

	if e.logger != nil {
		e.logger.Debug().
			Str("env", envName).
			Str("value", "[set]").
			Msg("Loaded value from environment variable")
	}

	return true, nil
}

func isNestedStruct(field reflect.Value) bool {
	t := field.Type()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return false
	}

	return !reflect.PointerTo(t).Implements(textUnmarshalerType) && t != reflect.TypeOf(time.Time{})
}

// loadNestedStruct only allocates a nil struct pointer when one of its variables is set.
func (e *EnvConfigLoader) loadNestedStruct(field reflect.Value, prefix string) (bool, error) {
	if field.Kind() != reflect.Ptr {
		return e.loadStruct(field, prefix)
	}

	target := field
	if field.IsNil() {
		target = reflect.New(field.Type().Elem())
	}

	applied, err := e.loadStruct(target.Elem(), prefix)
	if err != nil {
		return false, err
	}

	if applied && field.IsNil() {
		field.Set(target)
	}

	return applied, nil
}

func (e *EnvConfigLoader) setFieldByKind(field reflect.Value, envName, envValue string) error {
	if field.CanAddr() && field.Addr().Type().Implements(textUnmarshalerType) {
		if err := field.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(envValue)); err != nil {
			return fmt.Errorf("invalid value for %s: %w", envName, err)
		}

		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Bool:
		return e.setBoolField(field, envName, envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.setIntField(field, envName, envValue)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return e.setUintField(field, envName, envValue)
	case reflect.Float32, reflect.Float64:
		return e.setFloatField(field, envName, envValue)
	case reflect.Slice:
		return e.setSliceField(field, envName, envValue)
	case reflect.Ptr:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}

		return e.setFieldByKind(field.Elem(), envName, envValue)
	case reflect.Invalid, reflect.Uintptr, reflect.Complex64, reflect.Complex128,
		reflect.Array, reflect.Chan, reflect.Func, reflect.Interface, reflect.Map,
		reflect.Struct, reflect.UnsafePointer:
		return e.setComplexField(field, envName, envValue)
	default:
		return e.setComplexField(field, envName, envValue)
	}

	return nil
}

func (*EnvConfigLoader) setBoolField(field reflect.Value, envName, envValue string) error {
	b, err := strconv.ParseBool(envValue)
	if err != nil {
		return fmt.Errorf("invalid boolean value for %s: %w", envName, err)
	}

	field.SetBool(b)

	return nil
}

// setIntField sets an integer field value, with special handling for time.Duration.
func (*EnvConfigLoader) setIntField(field reflect.Value, envName, envValue string) error {
	if field.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(envValue)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %w", envName, err)
		}

		field.SetInt(int64(d))

		return nil
	}

	i, err := strconv.ParseInt(envValue, 10, field.Type().Bits())
	if err != nil {
		return fmt.Errorf("invalid integer value for %s: %w", envName, err)
	}

	field.SetInt(i)

	return nil
}

func (*EnvConfigLoader) setUintField(field reflect.Value, envName, envValue string) error {
	u, err := strconv.ParseUint(envValue, 10, field.Type().Bits())
	if err != nil {
		return fmt.Errorf("invalid unsigned integer value for %s: %w", envName, err)
	}

	field.SetUint(u)

	return nil
}

func (*EnvConfigLoader) setFloatField(field reflect.Value, envName, envValue string) error {
	f, err := strconv.ParseFloat(envValue, field.Type().Bits())
	if err != nil {
		return fmt.Errorf("invalid float value for %s: %w", envName, err)
	}

	field.SetFloat(f)

	return nil
}

// setSliceField splits string slices on commas and decodes other slices as JSON.
func (*EnvConfigLoader) setSliceField(field reflect.Value, envName, envValue string) error {
	if field.Type().Elem().Kind() != reflect.String {
		if err := json.Unmarshal([]byte(envValue), field.Addr().Interface()); err != nil {
			return fmt.Errorf("invalid slice value for %s: %w", envName, err)
		}

		return nil
	}

	values := strings.Split(envValue, ",")
	slice := reflect.MakeSlice(field.Type(), len(values), len(values))

	for i, v := range values {
		slice.Index(i).SetString(strings.TrimSpace(v))
	}

	field.Set(slice)

	return nil
}

// setComplexField decodes maps and other composite types as JSON.
func (*EnvConfigLoader) setComplexField(field reflect.Value, envName, envValue string) error {
	if err := json.Unmarshal([]byte(envValue), field.Addr().Interface()); err != nil {
		return fmt.Errorf("unsupported type %s for %s: %w", field.Kind(), envName, err)
	}

	return nil
}
