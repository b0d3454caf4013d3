package mongo

import (
	"context"
	"testing"
)

func TestConnect_RequiresDatabase(t *testing.T) {
	if _, _, err := Connect(context.Background(), Config{URI: "mongodb://127.0.0.1:1"}); err == nil {
		t.Fatal("expected error without a database name")
	}
}
