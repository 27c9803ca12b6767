package fulfillment

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mtuszynski/magazine-subscription/internal/woocommerce"
)

type CommerceMock struct{ mock.Mock }

func (m *CommerceMock) GetProduct(ctx context.Context, productID int) (*woocommerce.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*woocommerce.Product), args.Error(1)
}
func (m *CommerceMock) ListProductsByCategory(ctx context.Context, categoryID int) ([]woocommerce.Product, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]woocommerce.Product), args.Error(1)
}
func (m *CommerceMock) ListVariations(ctx context.Context, productID int) ([]woocommerce.Variation, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]woocommerce.Variation), args.Error(1)
}
func (m *CommerceMock) GetOrder(ctx context.Context, orderID int) (*woocommerce.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*woocommerce.Order), args.Error(1)
}
func (m *CommerceMock) AddOrderLineItems(ctx context.Context, orderID int, items []woocommerce.LineItem) (*woocommerce.Order, error) {
	args := m.Called(ctx, orderID, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*woocommerce.Order), args.Error(1)
}
func (m *CommerceMock) UpdateOrderStatus(ctx context.Context, orderID int, status string) error {
	return m.Called(ctx, orderID, status).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_AttachIssueToOrder_VariationMatch(t *testing.T) {
	commerce := new(CommerceMock)

	commerce.On("GetOrder", mock.Anything, 500).Return(&woocommerce.Order{ID: 500}, nil).Once()
	commerce.On("GetProduct", mock.Anything, 300).Return(&woocommerce.Product{
		ID:         300,
		Variations: []int{301, 302},
	}, nil).Once()
	commerce.On("ListVariations", mock.Anything, 300).Return([]woocommerce.Variation{
		{ID: 301, Attributes: []woocommerce.VariationAttribute{{Name: "format", Option: "print"}}},
		{ID: 302, Attributes: []woocommerce.VariationAttribute{{Name: "format", Option: "PDF"}}},
	}, nil).Once()
	commerce.On("AddOrderLineItems", mock.Anything, 500, []woocommerce.LineItem{{
		ProductID:   300,
		VariationID: 302,
		Quantity:    1,
		Subtotal:    "0.00",
		Total:       "0.00",
	}}).Return(&woocommerce.Order{ID: 500}, nil).Once()
	commerce.On("UpdateOrderStatus", mock.Anything, 500, "completed").Return(nil).Once()

	svc := New(commerce, newNoopLogger())
	err := svc.AttachIssueToOrder(context.Background(), 500, 300, "", "pdf")

	require.NoError(t, err)
	commerce.AssertExpectations(t)
}

func TestService_AttachIssueToOrder_Idempotent(t *testing.T) {
	commerce := new(CommerceMock)

	commerce.On("GetOrder", mock.Anything, 500).Return(&woocommerce.Order{
		ID:        500,
		LineItems: []woocommerce.LineItem{{ProductID: 300, VariationID: 302}},
	}, nil).Once()
	commerce.On("GetProduct", mock.Anything, 300).Return(&woocommerce.Product{
		ID:         300,
		Variations: []int{302},
	}, nil).Once()
	commerce.On("ListVariations", mock.Anything, 300).Return([]woocommerce.Variation{
		{ID: 302, Attributes: []woocommerce.VariationAttribute{{Name: "format", Option: "pdf"}}},
	}, nil).Once()

	svc := New(commerce, newNoopLogger())
	err := svc.AttachIssueToOrder(context.Background(), 500, 300, "", "pdf")

	require.NoError(t, err)
	commerce.AssertNotCalled(t, "AddOrderLineItems", mock.Anything, mock.Anything, mock.Anything)
	commerce.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_AttachIssueToOrder_NoMatchingVariation(t *testing.T) {
	commerce := new(CommerceMock)

	commerce.On("GetOrder", mock.Anything, 500).Return(&woocommerce.Order{ID: 500}, nil).Once()
	commerce.On("GetProduct", mock.Anything, 300).Return(&woocommerce.Product{
		ID:         300,
		Variations: []int{301},
	}, nil).Once()
	commerce.On("ListVariations", mock.Anything, 300).Return([]woocommerce.Variation{
		{ID: 301, Attributes: []woocommerce.VariationAttribute{{Name: "format", Option: "print"}}},
	}, nil).Once()

	svc := New(commerce, newNoopLogger())
	err := svc.AttachIssueToOrder(context.Background(), 500, 300, "", "pdf")

	require.NoError(t, err)
	commerce.AssertNotCalled(t, "AddOrderLineItems", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_AttachIssueToOrder_SimpleProduct(t *testing.T) {
	commerce := new(CommerceMock)

	commerce.On("GetOrder", mock.Anything, 500).Return(&woocommerce.Order{ID: 500}, nil).Once()
	commerce.On("GetProduct", mock.Anything, 300).Return(&woocommerce.Product{ID: 300}, nil).Once()
	commerce.On("AddOrderLineItems", mock.Anything, 500, []woocommerce.LineItem{{
		ProductID: 300,
		Quantity:  1,
		Subtotal:  "0.00",
		Total:     "0.00",
	}}).Return(&woocommerce.Order{ID: 500}, nil).Once()
	commerce.On("UpdateOrderStatus", mock.Anything, 500, "completed").Return(nil).Once()

	svc := New(commerce, newNoopLogger())
	err := svc.AttachIssueToOrder(context.Background(), 500, 300, "", "")

	require.NoError(t, err)
	commerce.AssertExpectations(t)
}

func TestService_BackfillDueIssues(t *testing.T) {
	commerce := new(CommerceMock)

	// В категории три номера: 9 — до окна, 10 и 11 — внутри, 12 ещё не вышел.
	products := []woocommerce.Product{
		{ID: 310, MetaData: []woocommerce.MetaData{{Key: woocommerce.MetaIssueNumber, Value: float64(9)}}},
		{ID: 311, MetaData: []woocommerce.MetaData{{Key: woocommerce.MetaIssueNumber, Value: float64(10)}}},
		{ID: 312, MetaData: []woocommerce.MetaData{{Key: woocommerce.MetaIssueNumber, Value: float64(11)}}},
	}
	commerce.On("ListProductsByCategory", mock.Anything, 7).Return(products, nil).Once()
	for _, id := range []int{311, 312} {
		commerce.On("GetOrder", mock.Anything, 500).Return(&woocommerce.Order{ID: 500}, nil).Once()
		commerce.On("GetProduct", mock.Anything, id).Return(&woocommerce.Product{ID: id}, nil).Once()
		commerce.On("AddOrderLineItems", mock.Anything, 500, mock.Anything).Return(&woocommerce.Order{ID: 500}, nil).Once()
		commerce.On("UpdateOrderStatus", mock.Anything, 500, "completed").Return(nil).Once()
	}

	svc := New(commerce, newNoopLogger())
	err := svc.BackfillDueIssues(context.Background(), 500, 7, 10, 21, 11, "")

	require.NoError(t, err)
	commerce.AssertNotCalled(t, "GetProduct", mock.Anything, 310)
}

func TestService_BackfillDueIssues_FutureWindow(t *testing.T) {
	commerce := new(CommerceMock)

	svc := New(commerce, newNoopLogger())
	err := svc.BackfillDueIssues(context.Background(), 500, 7, 12, 23, 11, "pdf")

	require.NoError(t, err)
	commerce.AssertNotCalled(t, "ListProductsByCategory", mock.Anything, mock.Anything)
}
