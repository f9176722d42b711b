package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
	"github.com/wichananm65/prasad-ordering/internal/session"
)

type fakeRemote struct {
	receipts map[string]entity.Receipt
	listed   []string
	paid     map[string]entity.Payment
}

func (f *fakeRemote) GetReceipt(_ context.Context, _ entity.PackagingMode, orderID string) (entity.Receipt, error) {
	r, ok := f.receipts[orderID]
	if !ok {
		return entity.Receipt{}, errors.New("not found")
	}
	return r, nil
}

func (f *fakeRemote) ListReceipts(_ context.Context, mode entity.PackagingMode, status, userID string) ([]entity.Receipt, error) {
	f.listed = append(f.listed, string(mode)+"/"+status+"/"+userID)
	var out []entity.Receipt
	for _, r := range f.receipts {
		if (status == entity.ReceiptPaid) == (r.Status == entity.ReceiptPaid) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRemote) SubmitPayment(_ context.Context, _ entity.PackagingMode, receiptID string, p entity.Payment) (entity.Receipt, error) {
	if f.paid == nil {
		f.paid = map[string]entity.Payment{}
	}
	f.paid[receiptID] = p
	return entity.Receipt{ID: receiptID, Status: entity.ReceiptPendingApproval, Payment: &p}, nil
}

type fakeIdentity struct {
	missing bool
}

func (f fakeIdentity) Identity(context.Context) (string, entity.PackagingMode, error) {
	if f.missing {
		return "", "", session.ErrMissingSession
	}
	return "u1", entity.SelfServing, nil
}

func sampleReceipt() entity.Receipt {
	return entity.Receipt{
		ID:       "r1",
		OrderID:  "o1",
		Status:   entity.ReceiptUnpaid,
		Pickup:   entity.PickupDetails{PickupDate: "01/13/2026", PickupTime: "10:00 AM", EventName: "parasabha"},
		Location: entity.PickupLocation{ID: "l1", Name: "Akshar Bhavan"},
		Items: []entity.ReceiptLine{
			{ID: "a", Name: "Shiro", Quantity: 1, Amount: 30000},
			{ID: "b", Name: "મોહનથાળ મીઠાઈ પ્રસાદ ખાસ વિશેષ", Quantity: 12, Amount: 120000},
			{ID: "c", Name: "月饼礼盒特别版大号", Quantity: 2, Amount: 8000},
		},
		ServingMethods:          []entity.ReceiptLine{{ID: "s", Name: "Steel Thali", Quantity: 2, Amount: 1000}},
		TotalFoodItemsPrice:     158000,
		TotalServingMethodPrice: 1000,
		TotalAmount:             189620,
	}
}

func TestText_AlignsColumns(t *testing.T) {
	out := Text(sampleReceipt(), 40)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.NotEmpty(t, lines)
	for _, l := range lines {
		assert.Equal(t, 40, runewidth.StringWidth(l), "line %q", l)
	}
	assert.Contains(t, out, "Parasabha")
	assert.Contains(t, out, "UNPAID")
	assert.Contains(t, out, "₹1896.20")
	assert.Contains(t, out, "Serving methods")
}

func TestText_EventSurvivesNarrowWidth(t *testing.T) {
	r := sampleReceipt()
	r.Pickup.EventName = "visheshsabha"
	out := Text(r, minWidth)
	assert.Contains(t, out, "Vishesh Sabha")
}

func TestText_ClampsWidth(t *testing.T) {
	out := Text(sampleReceipt(), 5)
	for _, l := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.Equal(t, minWidth, runewidth.StringWidth(l), "line %q", l)
	}
}

func TestValidatePayment(t *testing.T) {
	full := entity.Payment{CashierName: "Hari", ReceiptNumber: "R1", PhotoURL: "http://x/p.jpg"}
	require.NoError(t, ValidatePayment(full))

	p := full
	p.ReceiptNumber = ""
	err := ValidatePayment(p)
	require.ErrorIs(t, err, ErrPaymentIncomplete)
	assert.Equal(t, "Please enter payment receipt number", err.Error())
}

func TestService_List(t *testing.T) {
	remote := &fakeRemote{receipts: map[string]entity.Receipt{
		"o1": {ID: "r1", Status: entity.ReceiptUnpaid},
		"o2": {ID: "r2", Status: entity.ReceiptPaid},
		"o3": {ID: "r3", Status: entity.ReceiptPendingApproval},
	}}
	svc := NewService(remote, fakeIdentity{}, nil)

	unpaid, err := svc.List(context.Background(), entity.ReceiptUnpaid)
	require.NoError(t, err)
	assert.Len(t, unpaid, 2)
	assert.Equal(t, []string{"self-serving/unpaid/u1"}, remote.listed)

	_, err = svc.List(context.Background(), "pending")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	_, err = NewService(remote, fakeIdentity{missing: true}, nil).List(context.Background(), entity.ReceiptPaid)
	assert.ErrorIs(t, err, session.ErrMissingSession)
}

func newTestApp(remote *fakeRemote) *fiber.App {
	app := fiber.New()
	NewHandler(NewService(remote, fakeIdentity{}, nil)).RegisterRoutes(app)
	return app
}

func TestHandler_Text(t *testing.T) {
	app := newTestApp(&fakeRemote{receipts: map[string]entity.Receipt{"o1": sampleReceipt()}})

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/receipts/o1/text?width=48", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/plain")
	body, _ := io.ReadAll(res.Body)
	first := strings.SplitN(string(body), "\n", 2)[0]
	assert.Equal(t, 48, runewidth.StringWidth(first))
}

func TestHandler_ListRejectsUnknownStatus(t *testing.T) {
	app := newTestApp(&fakeRemote{})

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/receipts?status=maybe", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestHandler_Pay(t *testing.T) {
	remote := &fakeRemote{}
	app := newTestApp(remote)

	req := httptest.NewRequest("PATCH", "/api/v1/receipts/r1/payment", strings.NewReader(`{"cashierName":"Hari"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	var msg map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&msg))
	assert.Equal(t, "Please enter payment receipt number", msg["message"])

	req = httptest.NewRequest("PATCH", "/api/v1/receipts/r1/payment", strings.NewReader(`{"cashierName":"Hari","receiptNumber":"R1","photoUrl":"http://x/p.jpg"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, "Hari", remote.paid["r1"].CashierName)
}
