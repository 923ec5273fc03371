package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/raywall/fast-crud-toolkit/envloader"
	"github.com/raywall/fast-crud-toolkit/pkg/awsutil"
	"github.com/raywall/fast-crud-toolkit/pkg/config"
	"github.com/raywall/fast-crud-toolkit/pkg/engine"
	"github.com/raywall/fast-crud-toolkit/pkg/transport"
)

// bootstrap reúne as variáveis lidas antes do YAML.
type bootstrap struct {
	ConfigSource string `env:"CONFIG_FILE_PATH" envRequired:"true"`
}

var (
	// Variáveis injetáveis para mocking
	loadConfig    = config.NewUniversalLoader().Load
	openBackend   = func(ctx context.Context, cfg config.StorageConf) (*engine.Backend, error) { return engine.OpenBackend(ctx, cfg) }
	serverStarter = transport.StartHTTPServer
	lambdaStarter = func(handler interface{}) { lambda.Start(handler) }
	newSQSClient  = func(ctx context.Context) (transport.SQSClient, error) {
		cfg, err := awsutil.GetAWSConfig(ctx, os.Getenv("AWS_REGION"))
		if err != nil {
			return nil, err
		}
		return sqs.NewFromConfig(cfg), nil
	}
)

func main() {
	// .env é opcional; variáveis já exportadas têm prioridade
	if err := godotenv.Load(envFile()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("WARN: falha ao ler .env: %v", err)
	}

	var boot bootstrap
	if err := envloader.Load(&boot); err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, boot.ConfigSource); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func envFile() string {
	if f := os.Getenv("ENV_FILE"); f != "" {
		return f
	}
	return ".env"
}

// run contém a lógica principal testável
func run(ctx context.Context, source string) error {
	// 1. Carrega Configuração (Loader)
	cfg, err := loadConfig(ctx, source)
	if err != nil {
		return err
	}

	// 2. Backend e Engine (Boot Time)
	backend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	svc, err := engine.NewServiceEngine(ctx, cfg, source, backend)
	if err != nil {
		_ = backend.Close()
		return err
	}
	defer svc.Close()
	svc.Loader = loadConfig

	// 3. Hot Reload via SQS (opcional)
	if url := cfg.Service.Reload.SQSQueueURL; url != "" {
		client, err := newSQSClient(ctx)
		if err != nil {
			return fmt.Errorf("falha cliente SQS: %w", err)
		}
		reloader := transport.NewSQSReloader(client, url, svc)
		if cfg.Service.Reload.WaitSeconds > 0 {
			reloader.WaitSeconds = cfg.Service.Reload.WaitSeconds
		}
		go reloader.Start(ctx)
	}

	// 4. Seleciona Runtime Strategy
	switch cfg.Service.Runtime {
	case "local":
		return serverStarter(ctx, fmt.Sprintf(":%d", cfg.Service.Port), svc.Handler())
	case "lambda":
		lambdaStarter(transport.NewLambdaHandler(svc.Handler()).Handle)
		return nil
	default:
		return fmt.Errorf("runtime desconhecido: %s", cfg.Service.Runtime)
	}
}
