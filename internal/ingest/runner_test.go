package ingest

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transition-pathways/climate-ingest/internal/tabular"
	"github.com/transition-pathways/climate-ingest/internal/validate"
)

type fakeDataset struct {
	name       string
	relations  []Relation
	rules      map[string]validate.RuleSet
	processErr error
}

func (d *fakeDataset) Name() string   { return d.name }
func (d *fakeDataset) Schema() string { return d.name }

func (d *fakeDataset) Process(ctx context.Context, dataDir string) ([]Relation, error) {
	if d.processErr != nil {
		return nil, d.processErr
	}
	return d.relations, nil
}

func (d *fakeDataset) Rules() map[string]validate.RuleSet { return d.rules }

func (d *fakeDataset) CreateSQL() []string {
	return []string{"CREATE TABLE " + d.name + ".t (x TEXT)"}
}

func (d *fakeDataset) DropSQL() []string {
	return []string{"DROP TABLE IF EXISTS " + d.name + ".t"}
}

type spyLoader struct {
	loaded []string
	failOn string
}

func (l *spyLoader) Load(ctx context.Context, schema string, rel Relation) (int64, error) {
	if rel.Name == l.failOn {
		return 0, eris.Errorf("copy failed for %s", rel.Name)
	}
	l.loaded = append(l.loaded, schema+"."+rel.Name)
	return int64(rel.Data.Len()), nil
}

func rel(name string, rows int) Relation {
	tbl := tabular.NewTable("x")
	for i := 0; i < rows; i++ {
		tbl.Append("v")
	}
	return Relation{Name: name, SourceFile: name + ".csv", Data: tbl}
}

func expectStart(mock pgxmock.PgxPoolIface, dataset string, runID int64) {
	mock.ExpectQuery(`INSERT INTO audit\.pipeline_log`).
		WithArgs(dataset, StatusStarted).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(runID))
}

func expectDropCreate(mock pgxmock.PgxPoolIface) {
	mock.ExpectExec(`DROP TABLE`).WillReturnResult(pgxmock.NewResult("DROP", 0))
	mock.ExpectExec(`CREATE TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func expectUpdate(mock pgxmock.PgxPoolIface, nargs int) {
	mock.ExpectExec(`UPDATE audit\.pipeline_log`).WithArgs(anyArgs(nargs)...).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
}

func expectAuditInsert(mock pgxmock.PgxPoolIface, nargs int) {
	mock.ExpectExec(`INSERT INTO audit\.pipeline_log`).WithArgs(anyArgs(nargs)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func TestRunner_Run_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectStart(mock, "tpi", 1)
	expectDropCreate(mock)
	expectUpdate(mock, 2)      // validation checkpoint
	expectAuditInsert(mock, 5) // company table write
	expectAuditInsert(mock, 5) // mq_assessment table write
	expectUpdate(mock, 4)      // completion

	loader := &spyLoader{}
	r := NewRunner(mock, NewAuditLog(mock), loader, t.TempDir())

	ds := &fakeDataset{name: "tpi", relations: []Relation{rel("company", 3), rel("mq_assessment", 2)}}
	require.NoError(t, r.Run(context.Background(), ds))

	assert.Equal(t, []string{"tpi.company", "tpi.mq_assessment"}, loader.loaded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_Run_ValidationBlocksLoad(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectStart(mock, "tpi", 1)
	expectDropCreate(mock)
	expectAuditInsert(mock, 3) // validation errors persisted
	expectUpdate(mock, 3)      // failure record

	loader := &spyLoader{}
	r := NewRunner(mock, NewAuditLog(mock), loader, t.TempDir())

	empty := Relation{Name: "company", Data: tabular.NewTable("company_name")}
	ds := &fakeDataset{
		name:      "tpi",
		relations: []Relation{empty},
		rules:     map[string]validate.RuleSet{"company": {Required: []string{"company_name"}}},
	}

	err = r.Run(context.Background(), ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed validation")
	assert.Empty(t, loader.loaded, "nothing loads when validation fails")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_Run_PartialLoadDropsTables(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectStart(mock, "ascor", 1)
	expectDropCreate(mock)
	expectUpdate(mock, 2)      // validation checkpoint
	expectAuditInsert(mock, 5) // country table write
	mock.ExpectExec(`DROP TABLE`).WillReturnResult(pgxmock.NewResult("DROP", 0))
	expectUpdate(mock, 3) // failure record

	loader := &spyLoader{failOn: "benchmarks"}
	r := NewRunner(mock, NewAuditLog(mock), loader, t.TempDir())

	ds := &fakeDataset{name: "ascor", relations: []Relation{rel("country", 2), rel("benchmarks", 2)}}

	err = r.Run(context.Background(), ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load ascor.benchmarks")
	assert.Equal(t, []string{"ascor.country"}, loader.loaded)
	assert.NoError(t, mock.ExpectationsWereMet(), "tables are dropped again after a partial load")
}

func TestRunner_RunAll_ContinuesPastFailures(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// First dataset fails during processing.
	expectStart(mock, "ascor", 1)
	expectDropCreate(mock)
	expectUpdate(mock, 3) // failure record

	// Second dataset completes.
	expectStart(mock, "tpi", 2)
	expectDropCreate(mock)
	expectUpdate(mock, 2)
	expectAuditInsert(mock, 5)
	expectUpdate(mock, 4)

	loader := &spyLoader{}
	r := NewRunner(mock, NewAuditLog(mock), loader, t.TempDir())

	datasets := []Dataset{
		&fakeDataset{name: "ascor", processErr: eris.New("missing source file")},
		&fakeDataset{name: "tpi", relations: []Relation{rel("company", 1)}},
	}

	err = r.RunAll(context.Background(), datasets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 datasets failed")
	assert.Contains(t, err.Error(), "ascor")
	assert.Equal(t, []string{"tpi.company"}, loader.loaded, "later datasets still run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeDataset{name: "ascor"})
	reg.Register(&fakeDataset{name: "tpi"})

	assert.Equal(t, []string{"ascor", "tpi"}, reg.AllNames())

	_, err := reg.Get("nope")
	require.Error(t, err)

	selected, err := reg.Select([]string{"tpi"})
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "tpi", selected[0].Name())

	all, err := reg.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
