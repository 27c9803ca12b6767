package allocation

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mtuszynski/magazine-subscription/internal/lib/issues"
	"github.com/mtuszynski/magazine-subscription/internal/models"
	"github.com/mtuszynski/magazine-subscription/internal/woocommerce"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) MaxCoveringEnd(ctx context.Context, userID, categoryID int, attribute string, latest int) (int, bool, error) {
	args := m.Called(ctx, userID, categoryID, attribute, latest)
	return args.Int(0), args.Bool(1), args.Error(2)
}
func (m *RepoMock) AllocateSubscriber(ctx context.Context, sub models.Subscriber, latest int) (*models.Subscriber, error) {
	args := m.Called(ctx, sub, latest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscriber), args.Error(1)
}
func (m *RepoMock) UpsertSubscriber(ctx context.Context, sub models.Subscriber) (int, error) {
	args := m.Called(ctx, sub)
	return args.Int(0), args.Error(1)
}

type LookupMock struct{ mock.Mock }

func (m *LookupMock) LatestIssueNumber(ctx context.Context, categoryID int) (int, error) {
	args := m.Called(ctx, categoryID)
	return args.Int(0), args.Error(1)
}
func (m *LookupMock) FindSubscriptionProductInCart(ctx context.Context, items []models.CartItem) (*models.SubscriptionProduct, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionProduct), args.Error(1)
}
func (m *LookupMock) FindSubscriptionProductInOrder(ctx context.Context, orderID int) (*models.SubscriptionProduct, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionProduct), args.Error(1)
}

type CommerceMock struct{ mock.Mock }

func (m *CommerceMock) GetOrder(ctx context.Context, orderID int) (*woocommerce.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*woocommerce.Order), args.Error(1)
}
func (m *CommerceMock) GetCustomer(ctx context.Context, customerID int) (*woocommerce.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*woocommerce.Customer), args.Error(1)
}
func (m *CommerceMock) UpdateOrderMeta(ctx context.Context, orderID int, meta []woocommerce.MetaData) error {
	return m.Called(ctx, orderID, meta).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var testProduct = &models.SubscriptionProduct{
	ProductID:          100,
	ProductName:        "Annual subscription",
	CategoryProduct:    7,
	SubscriptionLength: 12,
	SelectedAttribute:  "pdf",
}

var testItems = []models.CartItem{{ProductID: 100}}

func TestService_Preview(t *testing.T) {
	tests := []struct {
		name       string
		customerID int
		setupMocks func(r *RepoMock, l *LookupMock)
		want       *models.StartFieldInfo
	}{
		{
			name:       "no subscription product in cart",
			customerID: 1,
			setupMocks: func(_ *RepoMock, l *LookupMock) {
				l.On("FindSubscriptionProductInCart", mock.Anything, testItems).Return(nil, nil).Once()
			},
			want: nil,
		},
		{
			name:       "new subscriber gets window around latest",
			customerID: 1,
			setupMocks: func(r *RepoMock, l *LookupMock) {
				l.On("FindSubscriptionProductInCart", mock.Anything, testItems).Return(testProduct, nil).Once()
				l.On("LatestIssueNumber", mock.Anything, 7).Return(10, nil).Once()
				r.On("MaxCoveringEnd", mock.Anything, 1, 7, "pdf", 10).Return(0, false, nil).Once()
			},
			want: &models.StartFieldInfo{
				RecentNumber: 10,
				DefaultStart: 11,
				MinStart:     7,
				MaxStart:     13,
			},
		},
		{
			name:       "renewal pins start to next issue",
			customerID: 1,
			setupMocks: func(r *RepoMock, l *LookupMock) {
				l.On("FindSubscriptionProductInCart", mock.Anything, testItems).Return(testProduct, nil).Once()
				l.On("LatestIssueNumber", mock.Anything, 7).Return(10, nil).Once()
				r.On("MaxCoveringEnd", mock.Anything, 1, 7, "pdf", 10).Return(22, true, nil).Once()
			},
			want: &models.StartFieldInfo{
				RecentNumber: 10,
				DefaultStart: 23,
				MinStart:     23,
				MaxStart:     23,
				Renewal:      true,
				PriorEnd:     22,
			},
		},
		{
			name:       "guest never checks covering record",
			customerID: 0,
			setupMocks: func(_ *RepoMock, l *LookupMock) {
				l.On("FindSubscriptionProductInCart", mock.Anything, testItems).Return(testProduct, nil).Once()
				l.On("LatestIssueNumber", mock.Anything, 7).Return(10, nil).Once()
			},
			want: &models.StartFieldInfo{
				RecentNumber: 10,
				DefaultStart: 11,
				MinStart:     7,
				MaxStart:     13,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			look := new(LookupMock)
			tt.setupMocks(repo, look)

			svc := New(repo, look, new(CommerceMock), newNoopLogger())
			got, err := svc.Preview(context.Background(), tt.customerID, testItems)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			repo.AssertExpectations(t)
			look.AssertExpectations(t)
		})
	}
}

func TestService_ValidateStart(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		covered  bool
		priorEnd int
		wantErr  error
	}{
		{name: "start inside window", start: 8, wantErr: nil},
		{name: "start below window", start: 6, wantErr: issues.ErrStartOutOfRange},
		{name: "start above window", start: 14, wantErr: issues.ErrStartOutOfRange},
		{name: "renewal with exact next issue", start: 23, covered: true, priorEnd: 22, wantErr: nil},
		{name: "renewal with wrong start", start: 11, covered: true, priorEnd: 22, wantErr: issues.ErrRenewalStartMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			look := new(LookupMock)
			look.On("FindSubscriptionProductInCart", mock.Anything, testItems).Return(testProduct, nil).Once()
			look.On("LatestIssueNumber", mock.Anything, 7).Return(10, nil).Once()
			repo.On("MaxCoveringEnd", mock.Anything, 1, 7, "pdf", 10).Return(tt.priorEnd, tt.covered, nil).Once()

			svc := New(repo, look, new(CommerceMock), newNoopLogger())
			err := svc.ValidateStart(context.Background(), 1, tt.start, testItems)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_FinalizeOrder_NewSubscriber(t *testing.T) {
	repo := new(RepoMock)
	look := new(LookupMock)
	commerce := new(CommerceMock)

	order := &woocommerce.Order{
		ID:         500,
		CustomerID: 1,
		MetaData: []woocommerce.MetaData{
			{Key: woocommerce.MetaSubscriptionStart, Value: "11"},
		},
	}
	look.On("FindSubscriptionProductInOrder", mock.Anything, 500).Return(testProduct, nil).Once()
	commerce.On("GetOrder", mock.Anything, 500).Return(order, nil).Once()
	look.On("LatestIssueNumber", mock.Anything, 7).Return(10, nil).Once()
	repo.On("MaxCoveringEnd", mock.Anything, 1, 7, "pdf", 10).Return(0, false, nil).Once()
	commerce.On("UpdateOrderMeta", mock.Anything, 500, []woocommerce.MetaData{
		{Key: woocommerce.MetaSubscriptionStart, Value: "11"},
		{Key: woocommerce.MetaSubscriptionLength, Value: "12"},
		{Key: woocommerce.MetaSubscriptionEnd, Value: "22"},
		{Key: woocommerce.MetaSelectedAttribute, Value: "pdf"},
		{Key: woocommerce.MetaCategoryProduct, Value: "7"},
	}).Return(nil).Once()

	svc := New(repo, look, commerce, newNoopLogger())
	err := svc.FinalizeOrder(context.Background(), 500)

	require.NoError(t, err)
	commerce.AssertExpectations(t)
}

func TestService_FinalizeOrder_RenewalOverridesStart(t *testing.T) {
	repo := new(RepoMock)
	look := new(LookupMock)
	commerce := new(CommerceMock)

	// Витрина прислала старт 11, но действующая подписка заканчивается на 22.
	order := &woocommerce.Order{
		ID:         501,
		CustomerID: 1,
		MetaData: []woocommerce.MetaData{
			{Key: woocommerce.MetaSubscriptionStart, Value: "11"},
		},
	}
	look.On("FindSubscriptionProductInOrder", mock.Anything, 501).Return(testProduct, nil).Once()
	commerce.On("GetOrder", mock.Anything, 501).Return(order, nil).Once()
	look.On("LatestIssueNumber", mock.Anything, 7).Return(10, nil).Once()
	repo.On("MaxCoveringEnd", mock.Anything, 1, 7, "pdf", 10).Return(22, true, nil).Once()
	commerce.On("UpdateOrderMeta", mock.Anything, 501, mock.MatchedBy(func(meta []woocommerce.MetaData) bool {
		return meta[0].Value == "23" && meta[2].Value == "34"
	})).Return(nil).Once()

	svc := New(repo, look, commerce, newNoopLogger())
	err := svc.FinalizeOrder(context.Background(), 501)

	require.NoError(t, err)
	commerce.AssertExpectations(t)
}

func TestService_CompleteOrder(t *testing.T) {
	repo := new(RepoMock)
	look := new(LookupMock)
	commerce := new(CommerceMock)

	order := &woocommerce.Order{
		ID:         500,
		CustomerID: 1,
		Billing:    woocommerce.Billing{Email: "billing@example.com"},
		MetaData: []woocommerce.MetaData{
			{Key: woocommerce.MetaSubscriptionStart, Value: "11"},
			{Key: woocommerce.MetaSubscriptionLength, Value: "12"},
			{Key: woocommerce.MetaSubscriptionEnd, Value: "22"},
			{Key: woocommerce.MetaSelectedAttribute, Value: "pdf"},
			{Key: woocommerce.MetaCategoryProduct, Value: "7"},
		},
	}
	commerce.On("GetOrder", mock.Anything, 500).Return(order, nil).Once()
	look.On("FindSubscriptionProductInOrder", mock.Anything, 500).Return(testProduct, nil).Once()
	look.On("LatestIssueNumber", mock.Anything, 7).Return(10, nil).Once()
	commerce.On("GetCustomer", mock.Anything, 1).Return(&woocommerce.Customer{
		ID: 1, Username: "reader", Email: "reader@example.com",
	}, nil).Once()

	saved := &models.Subscriber{
		ID: 42, UserID: 1, OrderID: 500,
		SubscriptionStart: 11, SubscriptionEnd: 22, IssuesLeft: 12,
	}
	repo.On("AllocateSubscriber", mock.Anything, mock.MatchedBy(func(sub models.Subscriber) bool {
		return sub.UserID == 1 && sub.OrderID == 500 &&
			sub.UserLogin == "reader" && sub.UserEmail == "reader@example.com" &&
			sub.SubscriptionStart == 11 && sub.CategorySubscriptionID == 7
	}), 10).Return(saved, nil).Once()

	svc := New(repo, look, commerce, newNoopLogger())
	got, err := svc.CompleteOrder(context.Background(), 500)

	require.NoError(t, err)
	assert.Equal(t, saved, got)
	repo.AssertExpectations(t)
}

func TestService_CompleteOrder_GuestOrder(t *testing.T) {
	commerce := new(CommerceMock)
	commerce.On("GetOrder", mock.Anything, 500).Return(&woocommerce.Order{ID: 500}, nil).Once()

	svc := New(new(RepoMock), new(LookupMock), commerce, newNoopLogger())
	got, err := svc.CompleteOrder(context.Background(), 500)

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestService_SyncOrder_RecountsIssuesLeft(t *testing.T) {
	repo := new(RepoMock)
	look := new(LookupMock)
	commerce := new(CommerceMock)

	// Администратор сдвинул конец окна на 15, свежий номер 10: остаток 5.
	order := &woocommerce.Order{
		ID:         500,
		CustomerID: 1,
		MetaData: []woocommerce.MetaData{
			{Key: woocommerce.MetaSubscriptionStart, Value: "11"},
			{Key: woocommerce.MetaSubscriptionEnd, Value: "15"},
			{Key: woocommerce.MetaCategoryProduct, Value: "7"},
		},
	}
	commerce.On("GetOrder", mock.Anything, 500).Return(order, nil).Once()
	look.On("FindSubscriptionProductInOrder", mock.Anything, 500).Return(testProduct, nil).Once()
	look.On("LatestIssueNumber", mock.Anything, 7).Return(10, nil).Once()
	commerce.On("GetCustomer", mock.Anything, 1).Return(&woocommerce.Customer{ID: 1, Username: "reader"}, nil).Once()
	repo.On("UpsertSubscriber", mock.Anything, mock.MatchedBy(func(sub models.Subscriber) bool {
		return sub.SubscriptionEnd == 15 && sub.IssuesLeft == 5
	})).Return(42, nil).Once()

	svc := New(repo, look, commerce, newNoopLogger())
	got, err := svc.SyncOrder(context.Background(), 500)

	require.NoError(t, err)
	assert.Equal(t, 42, got.ID)
	assert.Equal(t, 5, got.IssuesLeft)
	repo.AssertExpectations(t)
}
