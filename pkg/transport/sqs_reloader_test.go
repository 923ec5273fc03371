package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// --- Mocks ---

type MockSQSClient struct {
	mock.Mock
}

func (m *MockSQSClient) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.ReceiveMessageOutput), args.Error(1)
}

func (m *MockSQSClient) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, params)
	return &sqs.DeleteMessageOutput{}, args.Error(1)
}

// MockRegistryReloader Thread-Safe
type MockRegistryReloader struct {
	mu       sync.Mutex
	Reloaded bool
	Err      error
}

func (m *MockRegistryReloader) Reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Reloaded = true
	return m.Err
}

// WasReloaded Helper para ler o estado de forma segura no teste
func (m *MockRegistryReloader) WasReloaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Reloaded
}

// --- Tests ---

func TestSQSReloader_Integration(t *testing.T) {
	// Setup
	mockSQS := new(MockSQSClient)
	mockReloader := &MockRegistryReloader{}

	// Configuração do comportamento do Mock SQS
	// 1ª chamada: Retorna uma mensagem de reload
	mockSQS.On("ReceiveMessage", mock.Anything, mock.Anything).Return(&sqs.ReceiveMessageOutput{
		Messages: []types.Message{
			{
				Body:          stringPtr(`{"action":"reload"}`),
				ReceiptHandle: stringPtr("handle_123"),
			},
		},
	}, nil).Once()

	// 2ª chamada em diante: Retorna vazio para evitar loop infinito
	mockSQS.On("ReceiveMessage", mock.Anything, mock.Anything).Return(&sqs.ReceiveMessageOutput{
		Messages: []types.Message{},
	}, nil).Maybe()

	mockSQS.On("DeleteMessage", mock.Anything, mock.Anything).Return(nil, nil)

	reloader := NewSQSReloader(mockSQS, "https://sqs.us-east-1.amazonaws.com/123/reload-queue", mockReloader)

	ctx, cancel := context.WithCancel(context.Background())

	// Executa o método Start em goroutine
	go reloader.Start(ctx)

	// Aguarda processamento
	time.Sleep(100 * time.Millisecond)

	// Para o loop
	cancel()
	time.Sleep(50 * time.Millisecond)

	// Asserts
	assert.True(t, mockReloader.WasReloaded(), "Registro deveria ter sido recarregado")

	mockSQS.AssertCalled(t, "DeleteMessage", mock.Anything, &sqs.DeleteMessageInput{
		QueueUrl:      stringPtr("https://sqs.us-east-1.amazonaws.com/123/reload-queue"),
		ReceiptHandle: stringPtr("handle_123"),
	})
}

func TestSQSReloader_FailedReloadKeepsMessage(t *testing.T) {
	mockSQS := new(MockSQSClient)
	mockReloader := &MockRegistryReloader{Err: errors.New("yaml inválido")}

	mockSQS.On("ReceiveMessage", mock.Anything, mock.Anything).Return(&sqs.ReceiveMessageOutput{
		Messages: []types.Message{{ReceiptHandle: stringPtr("handle_456")}},
	}, nil).Once()
	mockSQS.On("ReceiveMessage", mock.Anything, mock.Anything).Return(&sqs.ReceiveMessageOutput{}, nil).Maybe()

	reloader := NewSQSReloader(mockSQS, "https://sqs.us-east-1.amazonaws.com/123/reload-queue", mockReloader)
	reloader.WaitSeconds = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reloader.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, mockReloader.WasReloaded, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	mockSQS.AssertNotCalled(t, "DeleteMessage", mock.Anything, mock.Anything)
}

func TestSQSReloader_RetryAndStop(t *testing.T) {
	mockSQS := new(MockSQSClient)
	mockSQS.On("ReceiveMessage", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	reloader := NewSQSReloader(mockSQS, "https://sqs.us-east-1.amazonaws.com/123/reload-queue", &MockRegistryReloader{})
	reloader.RetryDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reloader.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reloader não parou após o cancelamento")
	}
}

func TestSQSReloader_NoQueue(t *testing.T) {
	mockSQS := new(MockSQSClient)
	NewSQSReloader(mockSQS, "", ReloaderFunc(func(ctx context.Context) error { return nil })).Start(context.Background())
	mockSQS.AssertNotCalled(t, "ReceiveMessage", mock.Anything, mock.Anything)
}

func stringPtr(s string) *string {
	return &s
}
