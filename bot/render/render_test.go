package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"luckydraw/application/dto"
	"luckydraw/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDrawCard(t *testing.T) {
	t.Parallel()
	renderer := NewDrawCardRenderer()

	tests := []struct {
		name    string
		winners int
	}{
		{name: "single winner", winners: 1},
		{name: "ten winners grow the card", winners: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := dto.DrawAnnouncement{
				Draw: &entities.Draw{
					ID:             7,
					DrawDate:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
					TotalSales:     100000,
					BuyerCount:     100,
					PrizePool:      79000,
					PrizePerWinner: 7900,
					Donation:       1000,
					Status:         entities.DrawStatusCompleted,
				},
			}
			for i := 0; i < tt.winners; i++ {
				a.Winners = append(a.Winners, dto.WinnerView{UserID: int64(i), Name: "A very long winner display name", Amount: 7900})
			}

			data, err := renderer.RenderDrawCard(a)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, 420, img.Bounds().Dx())
			assert.GreaterOrEqual(t, img.Bounds().Dy(), 300)
		})
	}

	_, err := renderer.RenderDrawCard(dto.DrawAnnouncement{})
	assert.Error(t, err)
}

func TestTruncateName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "short", truncateName("short", 10))
	assert.Equal(t, "မောင်…", truncateName("မောင်မောင်", 6))
}

func TestPaymentQR(t *testing.T) {
	t.Parallel()

	data, err := PaymentQR(dto.PaymentAccount{Method: entities.PaymentMethodKPay, AccountName: "U Aung", Phone: "09123456789"})
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, qrSize, img.Bounds().Dx())

	_, err = PaymentQR(dto.PaymentAccount{Method: entities.PaymentMethodKPay})
	assert.Error(t, err)
}
