package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    RequestRef
		wantErr bool
	}{
		{input: "D12", want: RequestRef{Kind: RequestKindDeposit, ID: 12}},
		{input: "w7", want: RequestRef{Kind: RequestKindWithdrawal, ID: 7}},
		{input: " W100 ", want: RequestRef{Kind: RequestKindWithdrawal, ID: 100}},
		{input: "a3", want: RequestRef{Kind: RequestKindAdvertisement, ID: 3}},
		{input: "X1", wantErr: true},
		{input: "D", wantErr: true},
		{input: "D0", wantErr: true},
		{input: "Dabc", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRequestRef(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) RequestRef {
	t.Helper()
	ref, err := ParseRequestRef(s)
	require.NoError(t, err)
	return ref
}

func TestParsePaymentMethod(t *testing.T) {
	t.Parallel()

	m, err := ParsePaymentMethod("KPay")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodKPay, m)

	m, err = ParsePaymentMethod("Wave Pay")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodWavePay, m)
	assert.Equal(t, "WavePay", m.DisplayName())

	_, err = ParsePaymentMethod("paypal")
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestSummaryOfWithdrawal(t *testing.T) {
	t.Parallel()

	w := &WithdrawalRequest{ID: 3, UserID: 9, Amount: 5000, Method: PaymentMethodKPay, AccountName: "Mg Mg", AccountPhone: "09123456789"}
	s := SummaryOfWithdrawal(w)

	assert.Equal(t, "W3", s.Ref.String())
	assert.Equal(t, "Mg Mg 09123456789", s.Detail)
	assert.Equal(t, int64(5000), s.Amount)
}
