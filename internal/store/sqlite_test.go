package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/riskmap/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleRecords() []model.Record {
	return []model.Record{
		model.NewRecord("KOTA BANDUNG", 2023, "LAKI-LAKI", "25-49 TAHUN", "120"),
		model.NewRecord("KOTA BANDUNG", 2023, "PEREMPUAN", "15-19 TAHUN", "30"),
		model.NewRecord("KABUPATEN BOGOR", 2022, "PEREMPUAN", "≤ 4 TAHUN", "3"),
		model.NewRecord("KOTA DEPOK", 2023, "LAKI-LAKI", "≥ 50 TAHUN", "0"),
	}
}

func TestSQLite_ImportAndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	batch, err := st.ImportRecords(ctx, "cases.csv", sampleRecords())
	require.NoError(t, err)
	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, 4, batch.Records)

	got, err := st.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestSQLite_ListRecords_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	_, err := st.ImportRecords(ctx, "cases.csv", sampleRecords())
	require.NoError(t, err)

	tests := []struct {
		name    string
		filter  RecordFilter
		regions []string
	}{
		{"year", RecordFilter{Year: 2023}, []string{"Kota Bandung", "Kota Bandung", "Kota Depok"}},
		{"gender", RecordFilter{Gender: model.ParseGenderFilter("female")}, []string{"Kota Bandung", "Kabupaten Bogor"}},
		{"region normalized", RecordFilter{Region: "kota  depok"}, []string{"Kota Depok"}},
		{"year and gender", RecordFilter{Year: 2022, Gender: model.ParseGenderFilter("male")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := st.ListRecords(ctx, tt.filter)
			require.NoError(t, err)
			var regions []string
			for _, r := range got {
				regions = append(regions, r.Region)
			}
			assert.Equal(t, tt.regions, regions)
		})
	}
}

func TestSQLite_ListBatches(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := st.ImportRecords(ctx, "2022.csv", sampleRecords()[2:3])
	require.NoError(t, err)
	second, err := st.ImportRecords(ctx, "2023.xlsx", sampleRecords()[:2])
	require.NoError(t, err)

	batches, err := st.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	ids := []string{batches[0].ID, batches[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)
	for _, b := range batches {
		assert.False(t, b.ImportedAt.IsZero())
	}
}

func TestSQLite_ImportEmpty(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	batch, err := st.ImportRecords(ctx, "empty.csv", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, batch.Records)

	got, err := st.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_ListWithoutMigrate(t *testing.T) {
	st, err := NewSQLite(filepath.Join(t.TempDir(), "bare.db"))
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, err = st.ListRecords(context.Background(), RecordFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: list records")
}

func totalCases(records []model.Record) int64 {
	var n int64
	for _, r := range records {
		n += r.Cases
	}
	return n
}

func TestSQLite_ReimportReplacesSource(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := st.ImportRecords(ctx, "cases.csv", sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 0, first.Replaced)

	second, err := st.ImportRecords(ctx, "cases.csv", sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 1, second.Replaced)

	got, err := st.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, int64(153), totalCases(got))

	batches, err := st.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, second.ID, batches[0].ID)
}

func TestSQLite_DistinctSourcesAccumulate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.ImportRecords(ctx, "2022.csv", sampleRecords()[2:3])
	require.NoError(t, err)
	_, err = st.ImportRecords(ctx, "2023.csv", sampleRecords()[:2])
	require.NoError(t, err)

	got, err := st.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(153), totalCases(got))
}
