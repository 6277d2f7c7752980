package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/repository/memory"
)

func TestFormatTicketNumber(t *testing.T) {
	day := time.Date(2024, 1, 9, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, "ADU-20240109-007", FormatTicketNumber("ADU", day, 7))
	assert.Equal(t, "ADU-20240109-1234", FormatTicketNumber("ADU", day, 1234))
}

func TestTicketNumberGeneratorResetsDaily(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	gen := NewTicketNumberGenerator("", func() time.Time { return now })
	ctx := context.Background()

	first, err := gen.Next(ctx, store)
	require.NoError(t, err)
	second, err := gen.Next(ctx, store)
	require.NoError(t, err)
	now = now.Add(24 * time.Hour)
	nextDay, err := gen.Next(ctx, store)
	require.NoError(t, err)

	assert.Equal(t, "ADU-20240603-001", first)
	assert.Equal(t, "ADU-20240603-002", second)
	assert.Equal(t, "ADU-20240604-001", nextDay)
}

func TestTicketNumberGeneratorPrefix(t *testing.T) {
	gen := NewTicketNumberGenerator("SBY", func() time.Time { return time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC) })

	number, err := gen.Next(context.Background(), memory.NewStore())
	require.NoError(t, err)
	assert.Equal(t, "SBY-20240229-001", number)
}
