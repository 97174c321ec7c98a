package signals

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_FixedVocabularies(t *testing.T) {
	contractor := Catalog(Contractor)
	realEstate := Catalog(RealEstate)

	require.Len(t, contractor, 8)
	require.Len(t, realEstate, 8)
	assert.Equal(t, "Roof Damage", contractor[0])
	assert.Equal(t, "Estate Sale Sign", realEstate[7])

	for _, s := range contractor {
		assert.False(t, Contains(RealEstate, s), "%q must not be in both vocabularies", s)
	}

	// callers cannot mutate the catalog
	contractor[0] = "changed"
	assert.Equal(t, "Roof Damage", Catalog(Contractor)[0])
}

func TestSet_ToggleParity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	vocab := Catalog(Contractor)

	for trial := 0; trial < 50; trial++ {
		set := NewSet(Contractor)
		counts := map[string]int{}

		n := rng.Intn(40)
		for i := 0; i < n; i++ {
			sig := vocab[rng.Intn(len(vocab))]
			_, err := set.Toggle(sig)
			require.NoError(t, err)
			counts[sig]++
		}

		for _, sig := range vocab {
			assert.Equal(t, counts[sig]%2 == 1, set.Has(sig), "signal %q toggled %d times", sig, counts[sig])
		}
	}
}

func TestSet_Toggle(t *testing.T) {
	set := NewSet(RealEstate)

	on, err := set.Toggle("Boarded Up")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, 1, set.Len())

	on, err = set.Toggle("Boarded Up")
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, 0, set.Len())
}

func TestSet_RejectsOtherCategory(t *testing.T) {
	set := NewSet(RealEstate)
	_, err := set.Toggle("Roof Damage")
	assert.True(t, errors.Is(err, ErrUnknownSignal))
	assert.Equal(t, 0, set.Len())
}

func TestSet_OrderedFollowsCatalog(t *testing.T) {
	set := NewSet(Contractor)
	for _, s := range []string{"Damaged Siding", "Roof Damage", "Broken Fence"} {
		_, err := set.Toggle(s)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"Roof Damage", "Broken Fence", "Damaged Siding"}, set.Ordered())
}

func TestSet_CloneIsIndependent(t *testing.T) {
	set := NewSet(Contractor)
	_, _ = set.Toggle("Peeling Paint")
	clone := set.Clone()
	_, _ = clone.Toggle("Peeling Paint")

	assert.True(t, set.Has("Peeling Paint"))
	assert.False(t, clone.Has("Peeling Paint"))
}
