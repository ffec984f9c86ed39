package migrations

import (
	"sync"
	"testing"

	"gorm.io/gorm/schema"

	"courier/internal/models"
)

// The init migration relies on AutoMigrate to create the message foreign
// keys. That only happens when the constraints parsed from the model are
// owned by the messages schema, so pin that down here.
func TestMessageForeignKeysComeFromAutoMigrate(t *testing.T) {
	parsed, err := schema.Parse(&models.Message{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parse message schema: %v", err)
	}

	tests := []struct {
		relation string
		wantName string
	}{
		{relation: "Sender", wantName: "fk_messages_sender"},
		{relation: "Receiver", wantName: "fk_messages_receiver"},
	}
	for _, tt := range tests {
		rel, ok := parsed.Relationships.Relations[tt.relation]
		if !ok {
			t.Fatalf("message model has no %s relation", tt.relation)
		}
		constraint := rel.ParseConstraint()
		if constraint == nil {
			t.Fatalf("%s relation declares no foreign key constraint", tt.relation)
		}
		if constraint.Name != tt.wantName {
			t.Errorf("%s constraint name = %q, want %q", tt.relation, constraint.Name, tt.wantName)
		}
		if constraint.Schema != parsed {
			t.Errorf("%s constraint is not owned by the messages schema", tt.relation)
		}
	}
}
