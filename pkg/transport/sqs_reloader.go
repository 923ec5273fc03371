package transport

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SQSClient define a interface necessária para o reloader (permite Mocking)
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Reloader recarrega os modelos e as rotas do serviço.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ReloaderFunc adapta uma função a Reloader.
type ReloaderFunc func(ctx context.Context) error

func (f ReloaderFunc) Reload(ctx context.Context) error { return f(ctx) }

// SQSReloader gerencia o loop de verificação do SQS
type SQSReloader struct {
	client   SQSClient
	queueUrl string
	reloader Reloader
	logger   zerolog.Logger

	// WaitSeconds é o long polling de cada ReceiveMessage (padrão 20).
	WaitSeconds int32
	// RetryDelay é a espera após uma falha do SQS (padrão 5s).
	RetryDelay time.Duration
}

// NewSQSReloader cria uma nova instância do reloader
func NewSQSReloader(client SQSClient, queueUrl string, reloader Reloader) *SQSReloader {
	return &SQSReloader{
		client:      client,
		queueUrl:    queueUrl,
		reloader:    reloader,
		logger:      log.With().Str("component", "sqs_reloader").Logger(),
		WaitSeconds: 20,
		RetryDelay:  5 * time.Second,
	}
}

// Start inicia o monitoramento (bloqueante)
func (s *SQSReloader) Start(ctx context.Context) {
	if s.queueUrl == "" {
		s.logger.Warn().Msg("URL da fila SQS não configurada. Hot Reload desativado.")
		return
	}

	s.logger.Info().Str("queue", s.queueUrl).Msg("Monitorando fila SQS para Hot Reload")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Parando monitoramento SQS")
			return
		default:
		}

		out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(s.queueUrl),
			MaxNumberOfMessages: 1,
			WaitTimeSeconds:     s.WaitSeconds,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Dur("retry_in", s.RetryDelay).Msg("Erro no SQS")
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.RetryDelay):
			}
			continue
		}

		if len(out.Messages) == 0 {
			continue
		}
		s.logger.Info().Msg("Evento de alteração recebido via SQS")

		if err := s.reloader.Reload(ctx); err != nil {
			// A mensagem volta para a fila após o visibility timeout.
			s.logger.Error().Err(err).Msg("Falha no Reload; registro anterior mantido")
			continue
		}
		s.logger.Info().Msg("Hot Reload aplicado")

		if _, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(s.queueUrl),
			ReceiptHandle: out.Messages[0].ReceiptHandle,
		}); err != nil {
			s.logger.Warn().Err(err).Msg("Falha ao remover mensagem do SQS")
		}
	}
}
