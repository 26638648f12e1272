package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixed-income-lab/internal/domain"
)

func years(start int, selic ...float64) []domain.YearRates {
	out := make([]domain.YearRates, len(selic))
	for i, s := range selic {
		out[i] = domain.YearRates{Year: start + i, Selic: s, IPCA: 0.04}
	}
	return out
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry(2)

	require.NoError(t, r.Register(domain.Scenario{ID: "b", Years: years(2025, 0.1, 0.11)}))
	require.NoError(t, r.Register(domain.Scenario{ID: "a", Years: years(2025, 0.1, 0.11, 0.12)}))

	got, err := r.Get("a")
	require.NoError(t, err)
	assert.Len(t, got.Years, 3)

	// copies are independent of the registry
	got.Years[0].Selic = 99
	again, _ := r.Get("a")
	assert.Equal(t, 0.1, again.Years[0].Selic)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	r := NewRegistry(3)

	tests := []struct {
		name string
		s    domain.Scenario
	}{
		{"short coverage", domain.Scenario{ID: "short", Years: years(2025, 0.1, 0.1)}},
		{"gap", domain.Scenario{ID: "gap", Years: []domain.YearRates{{Year: 2025}, {Year: 2027}, {Year: 2028}}}},
		{"no id", domain.Scenario{Years: years(2025, 0.1, 0.1, 0.1)}},
		{"no years", domain.Scenario{ID: "empty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.s)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Duplicate(t *testing.T) {
	r := NewRegistry(1)
	s := domain.Scenario{ID: "x", Years: years(2025, 0.1)}

	require.NoError(t, r.Register(s))
	err := r.Register(s)
	assert.ErrorIs(t, err, ErrDuplicateScenario)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRegistry_Unknown(t *testing.T) {
	_, err := NewRegistry(1).Get("nope")
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestNewDefaultRegistry(t *testing.T) {
	r, err := NewDefaultRegistry(domain.DefaultHorizonYears)
	require.NoError(t, err)

	ids := make([]string, 0, r.Len())
	for _, s := range r.List() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"afrouxamento", "aperto", "manutencao"}, ids)

	_, err = NewDefaultRegistry(5)
	assert.ErrorIs(t, err, domain.ErrConfiguration, "built-ins cover three years only")
}
