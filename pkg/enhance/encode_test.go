package enhance

import(
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWithoutBudget(t *testing.T) {
	img := noisy(64, 64, 1)
	enc, err := EncodeWithBudget(img, 0, DefaultEncodeOptions())
	require.NoError(t, err)
	assert.Equal(t, 92, enc.Quality)
	assert.Equal(t, 1, enc.Attempts)
	assert.False(t, enc.BudgetExceeded)
}

func TestEncodeConvergesUnderBudget(t *testing.T) {
	img := noisy(256, 256, 2)
	eo := DefaultEncodeOptions()

	hi, err := encodeJPEG(img, eo.StartQuality)
	require.NoError(t, err)
	lo, err := encodeJPEG(img, eo.MinQuality)
	require.NoError(t, err)
	require.Less(t, len(lo), len(hi))

	budget := (len(lo) + len(hi)) / 2
	enc, err := EncodeWithBudget(img, budget, eo)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(enc.Bytes), budget)
	assert.Less(t, enc.Quality, eo.StartQuality)
	assert.GreaterOrEqual(t, enc.Quality, eo.MinQuality)
	assert.False(t, enc.BudgetExceeded)
	assert.LessOrEqual(t, enc.Attempts, eo.MaxAttempts)
}

func TestEncodeImpossibleBudgetReturnsFloor(t *testing.T) {
	img := noisy(128, 128, 3)
	eo := DefaultEncodeOptions()

	enc, err := EncodeWithBudget(img, 100, eo)
	require.NoError(t, err)
	assert.True(t, enc.BudgetExceeded)
	assert.Equal(t, eo.MinQuality, enc.Quality)
	assert.LessOrEqual(t, enc.Attempts, eo.MaxAttempts)

	floor, err := encodeJPEG(img, eo.MinQuality)
	require.NoError(t, err)
	assert.Equal(t, floor, enc.Bytes)
}

func TestEncodeAttemptsAreBounded(t *testing.T) {
	eo := EncodeOptions{StartQuality: 100, QualityStep: 1, MinQuality: 10, MaxAttempts: 4}
	require.NoError(t, eo.Validate())

	enc, err := EncodeWithBudget(noisy(32, 32, 4), 10, eo)
	require.NoError(t, err)
	assert.Equal(t, 4, enc.Attempts)
	assert.Equal(t, 10, enc.Quality, "last attempt is at the floor")
}

func TestEncodeOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultEncodeOptions().Validate())
	assert.Error(t, EncodeOptions{StartQuality: 30, QualityStep: 8, MinQuality: 40, MaxAttempts: 10}.Validate())
	assert.Error(t, EncodeOptions{StartQuality: 92, QualityStep: 0, MinQuality: 40, MaxAttempts: 10}.Validate())
	assert.Error(t, EncodeOptions{StartQuality: 92, QualityStep: 8, MinQuality: 40, MaxAttempts: 1}.Validate())
	assert.Error(t, EncodeOptions{StartQuality: 101, QualityStep: 8, MinQuality: 40, MaxAttempts: 10}.Validate())
}
