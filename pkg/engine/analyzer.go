package engine

import (
	"fmt"

	"github.com/raywall/fast-crud-toolkit/crud"
	"github.com/raywall/fast-crud-toolkit/pkg/config"
	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/raywall/fast-crud-toolkit/store/memstore"
)

// ValidationReport contém o resultado detalhado da análise.
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Routes   []string `json:"routes,omitempty"`
}

// Analyze realiza uma inspeção profunda na configuração: além da validação
// estrutural, gera as rotas e aponta combinações arriscadas.
func Analyze(cfg *config.ServiceConfig) (*ValidationReport, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuração nula")
	}
	report := &ValidationReport{
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
	}

	// 1. Validação estrutural e semântica
	if err := config.NewValidator().Validate(cfg); err != nil {
		report.Errors = append(report.Errors, err.Error())
	}

	// 2. Geração das rotas (mesmo caminho usado pelo servidor)
	registry, err := schema.NewRegistry(cfg.Models...)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("Registro de modelos: %v", err))
	} else {
		syn := crud.New(crud.Options{
			Registry: registry,
			Store:    memstore.New(),
			Lookup:   cfg.API.Lookup,
			Prefix:   cfg.API.Prefix,
		})
		routes, err := syn.RoutesFor(registry.Refs()...)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Rotas: %v", err))
		}
		for _, rt := range routes {
			report.Routes = append(report.Routes, fmt.Sprintf("%v %s (%s)", rt.Methods, rt.Path, rt.Name))
		}
	}

	// 3. Avisos
	if cfg.Storage.Driver == "memory" && cfg.Service.Runtime == "lambda" {
		report.Warnings = append(report.Warnings, "storage memory em lambda perde os dados a cada cold start")
	}
	if cfg.Storage.Driver == "postgres" && cfg.Storage.Postgres != nil && !cfg.Storage.Postgres.AutoMigrate {
		report.Warnings = append(report.Warnings, "postgres sem auto_migrate: as tabelas precisam existir")
	}
	for i := range cfg.Models {
		m := &cfg.Models[i]
		for _, f := range m.Fields {
			if f.Type == schema.TypeString && f.MaxLength == 0 && !f.PrimaryKey && len(f.Choices) == 0 {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("Modelo %s: campo '%s' sem max_length", m.Ref(), f.Name))
			}
		}
	}

	if len(report.Errors) > 0 {
		report.Valid = false
	}
	return report, nil
}
