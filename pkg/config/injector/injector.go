// Package injector resolve referências ${env.X}, ${ssm.X} e ${secret.X}
// dentro de structs de configuração já decodificadas.
package injector

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/raywall/fast-crud-toolkit/pkg/awsutil"
)

// Regex para capturar padrões ${tipo.chave}
// Ex: ${env.API_KEY}, ${ssm./app/config}, ${secret.db_pass}
var pattern = regexp.MustCompile(`\$\{(env|ssm|secret)\.([^}]+)\}`)

// Fetcher busca o valor de uma chave em uma fonte externa.
type Fetcher func(ctx context.Context, key string) (string, error)

type Injector struct {
	SSM     Fetcher
	Secrets Fetcher
}

// New cria um Injector que consulta SSM e Secrets Manager na região AWS_REGION.
func New() *Injector {
	region := os.Getenv("AWS_REGION")
	return &Injector{
		SSM: func(ctx context.Context, key string) (string, error) {
			return awsutil.GetParameter(ctx, region, key, true)
		},
		Secrets: func(ctx context.Context, key string) (string, error) {
			return awsutil.GetSecret(ctx, region, key)
		},
	}
}

func (i *Injector) Inject(ctx context.Context, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target deve ser um ponteiro para struct não nulo")
	}
	return i.injectRecursive(ctx, v.Elem())
}

func (i *Injector) injectRecursive(ctx context.Context, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for k := 0; k < t.NumField(); k++ {
			field := t.Field(k)
			value := v.Field(k)
			if !field.IsExported() {
				continue
			}

			// 1. Processa Tags (env:"...")
			if err := i.processStructTags(field, value); err != nil {
				return err
			}

			// 2. Interpolação e recursão
			if err := i.injectRecursive(ctx, value); err != nil {
				return err
			}
		}

	case reflect.String:
		if v.CanSet() {
			newValue, err := i.interpolateString(ctx, v.String())
			if err != nil {
				return err
			}
			v.SetString(newValue)
		}

	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String && !v.IsNil() {
			return i.injectMap(ctx, v)
		}

	case reflect.Ptr:
		if !v.IsNil() {
			return i.injectRecursive(ctx, v.Elem())
		}

	case reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			if err := i.injectRecursive(ctx, v.Index(j)); err != nil {
				return err
			}
		}
	}
	return nil
}

// processStructTags: a variável da tag env sobrescreve o valor do YAML.
func (i *Injector) processStructTags(field reflect.StructField, value reflect.Value) error {
	if !value.CanSet() {
		return nil
	}
	if tag := field.Tag.Get("env"); tag != "" {
		if val, exists := os.LookupEnv(tag); exists {
			if err := setField(value, val); err != nil {
				return fmt.Errorf("variável %s inválida para o campo %s: %w", tag, field.Name, err)
			}
		}
	}
	return nil
}

// interpolateString realiza a substituição baseada em Regex
func (i *Injector) interpolateString(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}

	var err error
	result := pattern.ReplaceAllStringFunc(input, func(match string) string {
		sub := pattern.FindStringSubmatch(match)
		val, resolveErr := i.fetchValue(ctx, sub[1], sub[2])
		if resolveErr != nil {
			if err == nil {
				err = resolveErr
			}
			return match
		}
		return val
	})

	return result, err
}

// injectMap lida com mapas dinâmicos
func (i *Injector) injectMap(ctx context.Context, v reflect.Value) error {
	iter := v.MapRange()
	updates := make(map[string]interface{})

	for iter.Next() {
		key := iter.Key()
		elem := iter.Value()
		if elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		if !elem.IsValid() {
			continue
		}

		switch elem.Kind() {
		case reflect.String:
			newVal, err := i.interpolateString(ctx, elem.String())
			if err != nil {
				return err
			}
			updates[key.String()] = newVal
		case reflect.Map:
			if subMap, ok := elem.Interface().(map[string]interface{}); ok {
				if err := i.injectMap(ctx, reflect.ValueOf(subMap)); err != nil {
					return err
				}
			}
		}
	}

	for k, val := range updates {
		v.SetMapIndex(reflect.ValueOf(k), reflect.ValueOf(val).Convert(v.Type().Elem()))
	}
	return nil
}

// fetchValue centraliza a busca de dados
func (i *Injector) fetchValue(ctx context.Context, sourceType, key string) (string, error) {
	switch sourceType {
	case "env":
		// Variável não encontrada retorna vazio
		return os.Getenv(key), nil
	case "ssm":
		if i.SSM == nil {
			return "", fmt.Errorf("fonte ssm não configurada para %s", key)
		}
		return i.SSM(ctx, key)
	case "secret":
		if i.Secrets == nil {
			return "", fmt.Errorf("fonte secret não configurada para %s", key)
		}
		return i.Secrets(ctx, key)
	}
	return "", fmt.Errorf("fonte desconhecida: %s", sourceType)
}

func setField(field reflect.Value, val string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(val)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(strings.TrimSpace(val), 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("tipo não suportado: %s", field.Kind())
	}
	return nil
}
