package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/raywall/fast-crud-toolkit/pkg/config"
	"github.com/raywall/fast-crud-toolkit/pkg/engine"
)

// loadConfig é injetável para testes
var loadConfig = config.NewUniversalLoader().Load

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Comandos esperados: validate, routes")
		os.Exit(1)
	}
	os.Exit(runCommand(os.Args[1], os.Args[2:], os.Stdout))
}

func runCommand(name string, args []string, out io.Writer) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	filePtr := fs.String("file", "", "Caminho do arquivo YAML ou S3/DynamoDB URI")

	switch name {
	case "validate", "routes":
	default:
		fmt.Fprintln(out, "Comando desconhecido")
		return 1
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *filePtr == "" {
		fmt.Fprintln(out, "Erro: flag -file é obrigatória")
		return 1
	}

	report, code := analyze(*filePtr, out)
	if report == nil {
		return code
	}

	if name == "routes" {
		for _, r := range report.Routes {
			fmt.Fprintln(out, r)
		}
		return code
	}

	// Output JSON para integração com Frontend
	if os.Getenv("OUTPUT_FORMAT") == "json" {
		jsonOutput, _ := json.Marshal(report)
		fmt.Fprintln(out, string(jsonOutput))
		return code
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(out, "⚠️  %s\n", w)
	}
	if code == 0 {
		fmt.Fprintln(out, "✅ Configuração Válida e Pronta para Deploy!")
	}
	return code
}

func analyze(path string, out io.Writer) (*engine.ValidationReport, int) {
	fmt.Fprintf(out, "🔍 Analisando configuração: %s ...\n", path)

	// 1. Load (Validação Estrutural)
	cfg, err := loadConfig(context.Background(), path)
	if err != nil {
		fmt.Fprintf(out, "❌ Erro de Carregamento/Estrutura:\n%v\n", err)
		return nil, 1
	}

	// 2. Analyze (Validação Lógica/Semântica)
	report, err := engine.Analyze(cfg)
	if err != nil {
		fmt.Fprintf(out, "❌ Erro interno do analisador: %v\n", err)
		return nil, 1
	}

	if !report.Valid {
		fmt.Fprintln(out, "❌ A configuração contém erros lógicos:")
		for _, e := range report.Errors {
			fmt.Fprintf(out, " - %s\n", e)
		}
		return report, 1 // Falha no CI
	}
	return report, 0
}
