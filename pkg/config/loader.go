package config

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/raywall/fast-crud-toolkit/pkg/awsutil"
	"github.com/raywall/fast-crud-toolkit/pkg/config/injector"
	"github.com/raywall/fast-crud-toolkit/schema"
	"gopkg.in/yaml.v3"
)

// Load é o atalho usado na inicialização e no hot reload.
func Load(source string) (*ServiceConfig, error) {
	return NewUniversalLoader().Load(context.Background(), source)
}

// DynamoGetter interface para Mock
type DynamoGetter interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Injector resolve referências ${env|ssm|secret.X} na configuração decodificada.
type Injector interface {
	Inject(ctx context.Context, target interface{}) error
}

// UniversalLoader suporta múltiplas fontes de configuração (Local, S3, DynamoDB).
// Clientes nulos são criados sob demanda a partir da configuração padrão da AWS.
type UniversalLoader struct {
	S3       awsutil.S3Client
	Dynamo   DynamoGetter
	Injector Injector

	validator *ConfigValidator
}

// NewUniversalLoader cria uma nova instância.
func NewUniversalLoader() *UniversalLoader {
	return &UniversalLoader{
		validator: NewValidator(),
	}
}

// Load lê a fonte principal, anexa os modelos de model_files e valida o resultado.
func (ul *UniversalLoader) Load(ctx context.Context, source string) (*ServiceConfig, error) {
	rawData, err := ul.Fetch(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("falha leitura config (%s): %w", source, err)
	}

	var cfg ServiceConfig
	if err := yaml.Unmarshal(rawData, &cfg); err != nil {
		return nil, fmt.Errorf("YAML malformado: %w", err)
	}

	inj := ul.Injector
	if inj == nil {
		inj = injector.New()
	}
	if err := inj.Inject(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("falha na injeção de variáveis: %w", err)
	}

	for _, file := range cfg.ModelFiles {
		data, err := ul.Fetch(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("falha leitura modelos (%s): %w", file, err)
		}
		models, err := schema.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("modelos inválidos (%s): %w", file, err)
		}
		cfg.Models = append(cfg.Models, models...)
	}

	if ul.validator != nil {
		if err := ul.validator.Validate(&cfg); err != nil {
			return nil, fmt.Errorf("validação da configuração falhou: %w", err)
		}
	}
	return &cfg, nil
}

// Fetch devolve o conteúdo bruto de source conforme o esquema da URI.
func (ul *UniversalLoader) Fetch(ctx context.Context, source string) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, "s3://"):
		if ul.S3 == nil {
			cfg, err := awsutil.GetAWSConfig(ctx, os.Getenv("AWS_REGION"))
			if err != nil {
				return nil, err
			}
			ul.S3 = s3.NewFromConfig(cfg)
		}
		bucket, key, err := awsutil.ParseS3URI(source)
		if err != nil {
			return nil, err
		}
		return awsutil.FetchObject(ctx, ul.S3, bucket, key)

	case strings.HasPrefix(source, "dynamodb://"):
		if ul.Dynamo == nil {
			cfg, err := awsutil.GetAWSConfig(ctx, os.Getenv("AWS_REGION"))
			if err != nil {
				return nil, err
			}
			ul.Dynamo = dynamodb.NewFromConfig(cfg)
		}
		return ul.loadFromDynamoDB(ctx, source)

	default:
		// Suporta tanto "file://config.yaml" quanto apenas "config.yaml"
		return os.ReadFile(strings.TrimPrefix(source, "file://"))
	}
}

// loadFromDynamoDB lê dynamodb://tabela/chave?col=dado&pk=UserId
func (ul *UniversalLoader) loadFromDynamoDB(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("URL DynamoDB inválida: %w", err)
	}

	tableName := u.Host
	pkValue := strings.TrimPrefix(u.Path, "/")
	if tableName == "" || pkValue == "" {
		return nil, fmt.Errorf("URL DynamoDB inválida: %s", uri)
	}

	colName := u.Query().Get("col")
	if colName == "" {
		colName = "config" // Coluna padrão onde o YAML está salvo
	}
	pkName := u.Query().Get("pk")
	if pkName == "" {
		pkName = "id"
	}

	out, err := ul.Dynamo.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &tableName,
		Key: map[string]types.AttributeValue{
			pkName: &types.AttributeValueMemberS{Value: pkValue},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("item não encontrado no DynamoDB")
	}

	var itemMap map[string]interface{}
	if err := attributevalue.UnmarshalMap(out.Item, &itemMap); err != nil {
		return nil, err
	}

	content, ok := itemMap[colName].(string)
	if !ok {
		return nil, fmt.Errorf("coluna '%s' inválida ou vazia no DynamoDB", colName)
	}
	return []byte(content), nil
}
