package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/smallnest/planexec/store"
	"github.com/stretchr/testify/assert"
)

func TestPostgresCheckpointStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cs := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	cp := &store.Checkpoint{
		ID:        "cp-1",
		ThreadID:  "thread-1",
		Phase:     "planner",
		State:     map[string]any{"input": "what is 2+3"},
		Timestamp: time.Now(),
		Version:   1,
		Metadata:  map[string]any{"model": "gpt-4o-mini"},
	}

	stateJSON, _ := json.Marshal(cp.State)
	metadataJSON, _ := json.Marshal(cp.Metadata)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO checkpoints")).
		WithArgs(
			cp.ID,
			cp.ThreadID,
			cp.Phase,
			stateJSON,
			metadataJSON,
			cp.Timestamp,
			cp.Version,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = cs.Save(context.Background(), cp)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCheckpointStore_Save_MarshalError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cs := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	cp := &store.Checkpoint{
		ID:        "cp-1",
		ThreadID:  "thread-1",
		Phase:     "planner",
		State:     make(chan int), // channels cannot be marshaled to JSON
		Timestamp: time.Now(),
		Version:   1,
	}

	err = cs.Save(context.Background(), cp)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal state")
}

func TestPostgresCheckpointStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cs := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	cpID := "cp-1"
	timestamp := time.Now()
	state := map[string]any{"input": "what is 2+3"}
	metadata := map[string]any{"model": "gpt-4o-mini"}

	stateJSON, _ := json.Marshal(state)
	metadataJSON, _ := json.Marshal(metadata)

	rows := pgxmock.NewRows([]string{"id", "thread_id", "phase", "state", "metadata", "timestamp", "version"}).
		AddRow(cpID, "thread-1", "planner", stateJSON, metadataJSON, timestamp, 1)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, thread_id, phase, state, metadata, timestamp, version FROM checkpoints WHERE id = $1")).
		WithArgs(cpID).
		WillReturnRows(rows)

	loaded, err := cs.Load(context.Background(), cpID)
	assert.NoError(t, err)
	assert.Equal(t, cpID, loaded.ID)
	assert.Equal(t, "thread-1", loaded.ThreadID)
	assert.Equal(t, "planner", loaded.Phase)
	assert.Equal(t, 1, loaded.Version)

	loadedState, ok := loaded.State.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "what is 2+3", loadedState["input"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCheckpointStore_Load_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cs := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	cpID := "non-existent"

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, thread_id, phase, state, metadata, timestamp, version FROM checkpoints WHERE id = $1")).
		WithArgs(cpID).
		WillReturnError(pgx.ErrNoRows)

	loaded, err := cs.Load(context.Background(), cpID)
	assert.Error(t, err)
	assert.Nil(t, loaded)
	assert.Contains(t, err.Error(), "checkpoint not found")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCheckpointStore_Load_InvalidStateJSON(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cs := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	cpID := "cp-1"

	rows := pgxmock.NewRows([]string{"id", "thread_id", "phase", "state", "metadata", "timestamp", "version"}).
		AddRow(cpID, "thread-1", "planner", []byte("{invalid json"), []byte("{}"), time.Now(), 1)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, thread_id, phase, state, metadata, timestamp, version FROM checkpoints WHERE id = $1")).
		WithArgs(cpID).
		WillReturnRows(rows)

	loaded, err := cs.Load(context.Background(), cpID)
	assert.Error(t, err)
	assert.Nil(t, loaded)
	assert.Contains(t, err.Error(), "failed to unmarshal state")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCheckpointStore_Latest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cs := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	threadID := "thread-1"
	stateJSON, _ := json.Marshal(map[string]any{"response": "5"})

	rows := pgxmock.NewRows([]string{"id", "thread_id", "phase", "state", "metadata", "timestamp", "version"}).
		AddRow("cp-3", threadID, "answer_maker", stateJSON, []byte("{}"), time.Now(), 3)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, thread_id, phase, state, metadata, timestamp, version FROM checkpoints WHERE thread_id = $1 ORDER BY version DESC LIMIT 1")).
		WithArgs(threadID).
		WillReturnRows(rows)

	latest, err := cs.Latest(context.Background(), threadID)
	assert.NoError(t, err)
	assert.Equal(t, "cp-3", latest.ID)
	assert.Equal(t, "answer_maker", latest.Phase)
	assert.Equal(t, 3, latest.Version)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCheckpointStore_Latest_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cs := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, thread_id, phase, state, metadata, timestamp, version FROM checkpoints WHERE thread_id = $1 ORDER BY version DESC LIMIT 1")).
		WithArgs("empty-thread").
		WillReturnError(pgx.ErrNoRows)

	latest, err := cs.Latest(context.Background(), "empty-thread")
	assert.Error(t, err)
	assert.Nil(t, latest)
	assert.Contains(t, err.Error(), "no checkpoints for thread")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCheckpointStore_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cs := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	threadID := "thread-1"
	timestamp := time.Now()

	checkpoints := []struct {
		id      string
		phase   string
		state   map[string]any
		version int
	}{
		{"cp-1", "planner", map[string]any{"step": 1}, 1},
		{"cp-2", "plan_executor", map[string]any{"step": 2}, 2},
	}

	rows := pgxmock.NewRows([]string{"id", "thread_id", "phase", "state", "metadata", "timestamp", "version"})
	for _, cp := range checkpoints {
		stateJSON, _ := json.Marshal(cp.state)
		rows.AddRow(cp.id, threadID, cp.phase, stateJSON, []byte("{}"), timestamp, cp.version)
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, thread_id, phase, state, metadata, timestamp, version FROM checkpoints WHERE thread_id = $1 ORDER BY version ASC")).
		WithArgs(threadID).
		WillReturnRows(rows)

	loaded, err := cs.List(context.Background(), threadID)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(loaded))
	assert.Equal(t, "cp-1", loaded[0].ID)
	assert.Equal(t, "planner", loaded[0].Phase)
	assert.Equal(t, "cp-2", loaded[1].ID)
	assert.Equal(t, "plan_executor", loaded[1].Phase)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCheckpointStore_List_DatabaseError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cs := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	dbError := errors.New("database connection failed")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, thread_id, phase, state, metadata, timestamp, version FROM checkpoints WHERE thread_id = $1 ORDER BY version ASC")).
		WithArgs("thread-1").
		WillReturnError(dbError)

	loaded, err := cs.List(context.Background(), "thread-1")
	assert.Error(t, err)
	assert.Nil(t, loaded)
	assert.Contains(t, err.Error(), "failed to list checkpoints")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCheckpointStore_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cs := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM checkpoints WHERE id = $1")).
		WithArgs("cp-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err = cs.Delete(context.Background(), "cp-1")
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCheckpointStore_Clear(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cs := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM checkpoints WHERE thread_id = $1")).
		WithArgs("thread-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 5))

	err = cs.Clear(context.Background(), "thread-1")
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCheckpointStore_InitSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cs := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS checkpoints")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	err = cs.InitSchema(context.Background())
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresCheckpointStoreWithPool_DefaultTableName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cs := NewPostgresCheckpointStoreWithPool(mock, "")

	assert.NotNil(t, cs)
	assert.Equal(t, "checkpoints", cs.tableName)
	assert.Equal(t, mock, cs.pool)
}
