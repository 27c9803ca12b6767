package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mtuszynski/magazine-subscription/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ListSubscribers(ctx context.Context, onlyActive bool) ([]*models.Subscriber, error) {
	args := m.Called(ctx, onlyActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscriber), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_WriteActiveCSV(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListSubscribers", mock.Anything, true).Return([]*models.Subscriber{
		{
			UserLogin:         "reader",
			UserEmail:         "reader@example.com",
			OrderID:           500,
			ProductName:       "Annual subscription",
			SubscriptionStart: 11,
			SubscriptionEnd:   22,
			AttributeSelector: "pdf",
			IssuesLeft:        12,
		},
	}, nil).Once()

	var buf bytes.Buffer
	svc := New(repo, newNoopLogger())
	err := svc.WriteActiveCSV(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\xEF\xBB\xBF"), "output must start with UTF-8 BOM")

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(out, "\xEF\xBB\xBF")), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		"Username;Email;Order Id;Product Name;Subscription Start;Subscription End;Attribute Selector;Subscription Left",
		lines[0])
	assert.Equal(t, "reader;reader@example.com;500;Annual subscription;11;22;pdf;12", lines[1])
}

func TestService_WriteActiveCSV_Empty(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListSubscribers", mock.Anything, true).Return([]*models.Subscriber{}, nil).Once()

	var buf bytes.Buffer
	svc := New(repo, newNoopLogger())
	err := svc.WriteActiveCSV(context.Background(), &buf)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(buf.String(), "\xEF\xBB\xBF")), "\n")
	assert.Len(t, lines, 1)
}
