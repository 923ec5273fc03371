package awsutil

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Interfaces para abstrair o SDK da AWS (Permite Mocking)
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// GetParameter lê um parâmetro do SSM Parameter Store com o cliente real.
func GetParameter(ctx context.Context, region, path string, decrypt bool) (string, error) {
	cfg, err := GetAWSConfig(ctx, region)
	if err != nil {
		return "", err
	}
	return GetParameterWith(ctx, ssm.NewFromConfig(cfg), path, decrypt)
}

// GetParameterWith: lógica pura testável via Mock.
func GetParameterWith(ctx context.Context, client SSMClient, path string, decrypt bool) (string, error) {
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &path,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return "", fmt.Errorf("erro no SSM GetParameter: %w", err)
	}
	if out.Parameter == nil {
		return "", fmt.Errorf("parâmetro %s sem valor", path)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// GetSecret lê um segredo do Secrets Manager com o cliente real.
//
// O id aceita o sufixo "#campo" para extrair um campo de um segredo JSON,
// ex: "prod/db#password".
func GetSecret(ctx context.Context, region, id string) (string, error) {
	cfg, err := GetAWSConfig(ctx, region)
	if err != nil {
		return "", err
	}
	return GetSecretWith(ctx, secretsmanager.NewFromConfig(cfg), id)
}

// GetSecretWith: lógica pura testável via Mock.
func GetSecretWith(ctx context.Context, client SecretsClient, id string) (string, error) {
	secretID, field, _ := strings.Cut(id, "#")

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretID,
	})
	if err != nil {
		return "", fmt.Errorf("erro no SecretsManager: %w", err)
	}
	val := aws.ToString(out.SecretString)
	if field == "" {
		return val, nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return "", fmt.Errorf("segredo %s não é um JSON: %w", secretID, err)
	}
	v, ok := data[field]
	if !ok {
		return "", fmt.Errorf("campo %q ausente no segredo %s", field, secretID)
	}
	return fmt.Sprintf("%v", v), nil
}
