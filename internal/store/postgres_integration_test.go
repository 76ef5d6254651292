//go:build integration

package store

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/af-corp/chatbot-gateway/internal/types"
)

// Run with: CHATBOT_TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/store
func newPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("CHATBOT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CHATBOT_TEST_DATABASE_URL not set")
	}
	m, err := migrate.New("file://../../migrations", dsn)
	if err != nil {
		t.Fatalf("migrator: %v", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("migrate up: %v", err)
	}
	m.Close()

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)
	return NewPostgresStore(pool)
}

func TestPostgresStore_KeyOrderRoundTrip(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()

	client := &types.Client{Name: "order", APIKeyHash: "order-" + t.Name(), IsActive: true}
	if err := s.CreateClient(ctx, client); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.db.Exec(context.Background(), `DELETE FROM clients WHERE id = $1`, client.ID) })

	const cfgJSON = `{"jsonData":{"campaigns":[{"campaign_name":"A","spend":100,"clicks":7}]},"aiProvider":"claude"}`
	var cfg types.SessionConfig
	if err := cfg.UnmarshalJSON([]byte(cfgJSON)); err != nil {
		t.Fatal(err)
	}
	sess := &types.Session{ClientID: client.ID, Config: cfg}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetSession(ctx, client.ID, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if raw, _ := got.Config.MarshalJSON(); string(raw) != cfgJSON {
		t.Errorf("session config = %s\nwant           %s", raw, cfgJSON)
	}

	v, err := types.DecodeValue(strings.NewReader(`[{"zeta":1,"alpha":2,"mid":3}]`))
	if err != nil {
		t.Fatal(err)
	}
	upload := &types.FileUpload{
		SessionID:    sess.ID,
		OriginalName: "order.json",
		FileType:     types.FileTypeJSON,
		FileSize:     30,
		Data:         &types.FileData{Type: types.FileTypeJSON, Size: 30, Data: v},
	}
	if err := s.SaveFile(ctx, upload); err != nil {
		t.Fatal(err)
	}
	f, err := s.ActiveFile(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	items, ok := f.Data.Data.([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("file data = %#v", f.Data.Data)
	}
	obj, ok := items[0].(*types.Object)
	if !ok {
		t.Fatalf("item = %#v", items[0])
	}
	if keys := strings.Join(obj.Keys(), ","); keys != "zeta,alpha,mid" {
		t.Errorf("file keys = %s, want zeta,alpha,mid", keys)
	}
}
