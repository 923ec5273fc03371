package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/raywall/fast-crud-toolkit/schema"
)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza validações estruturais (tags) e semânticas (lógica)
func (cv *ConfigValidator) Validate(cfg *ServiceConfig) error {
	// 1. Validação Estrutural (Tags do struct: required, oneof, etc)
	if err := cv.validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMsgs []string
			for _, e := range validationErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("Campo '%s' falhou na regra '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("erros de validação estrutural:\n- %s", strings.Join(errMsgs, "\n- "))
		}
		return fmt.Errorf("erro de validação estrutural: %w", err)
	}

	// 2. Validação Semântica (Regras de negócio da configuração)
	if err := cv.validateSemantics(cfg); err != nil {
		return fmt.Errorf("erro de validação semântica: %w", err)
	}

	return nil
}

func (cv *ConfigValidator) validateSemantics(cfg *ServiceConfig) error {
	if _, err := time.ParseDuration(cfg.Service.Timeout); err != nil {
		return fmt.Errorf("timeout inválido: '%s'", cfg.Service.Timeout)
	}

	// 1. O driver escolhido precisa da sua seção
	switch cfg.Storage.Driver {
	case "postgres":
		if cfg.Storage.Postgres == nil {
			return fmt.Errorf("storage.postgres é obrigatório para o driver postgres")
		}
	case "redis":
		if cfg.Storage.Redis == nil {
			return fmt.Errorf("storage.redis é obrigatório para o driver redis")
		}
	}

	// 2. Pelo menos um modelo, sem referências duplicadas
	if len(cfg.Models) == 0 {
		return fmt.Errorf("nenhum modelo declarado")
	}
	if err := schema.ValidateModels(cfg.Models); err != nil {
		return err
	}
	seen := make(map[schema.Ref]bool)
	for i := range cfg.Models {
		ref := cfg.Models[i].Ref()
		if seen[ref] {
			return fmt.Errorf("modelo duplicado detectado: '%s'", ref)
		}
		seen[ref] = true
	}

	// 3. Os caminhos gerados usam apenas o nome do modelo
	names := make(map[string]schema.Ref)
	for ref := range seen {
		if other, ok := names[ref.Name]; ok {
			return fmt.Errorf("modelos '%s' e '%s' gerariam as mesmas rotas", other, ref)
		}
		names[ref.Name] = ref
	}

	return nil
}
