package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/stayledger/internal/models"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ConsolidationPolicy
		wantErr bool
	}{
		{in: "", want: PolicyConsolidationWins},
		{in: "consolidation-wins", want: PolicyConsolidationWins},
		{in: " Calculator-Wins ", want: PolicyCalculatorWins},
		{in: "branch-wins", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigCode(t *testing.T) {
	owners2 := &models.Unit{PaymentType: models.PaymentTypeOwners2}
	client := &models.Unit{PaymentType: models.PaymentTypeClient}

	tests := []struct {
		name    string
		booking *models.Booking
		unit    *models.Unit
		want    string
	}{
		{name: "private card", booking: &models.Booking{Source: models.SourcePrivate, PaymentMethod: models.PaymentCard}, unit: client, want: models.ConfigCodePrivateCard},
		{name: "private cash", booking: &models.Booking{Source: models.SourcePrivate, PaymentMethod: models.PaymentCash}, unit: owners2, want: models.ConfigCodePrivateCash},
		{name: "private no pay", booking: &models.Booking{Source: models.SourcePrivate, PaymentMethod: models.PaymentNoPay}, unit: owners2, want: models.ConfigCodePrivateCash},
		{name: "airbnb client unit", booking: &models.Booking{Source: models.SourceAirbnb}, unit: client, want: models.ConfigCodeClient},
		{name: "airbnb owners2 unit", booking: &models.Booking{Source: models.SourceAirbnb}, unit: owners2, want: models.ConfigCodeOwners2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, configCode(tt.booking, tt.unit))
		})
	}
}

func TestNewConfirmationCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := NewConfirmationCode()
		assert.Regexp(t, `^O2M[0-9A-F]{7}$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 95)
}
