package vocab

import "testing"

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	if len(r.DocumentTags()) == 0 {
		t.Error("expected document tags to be loaded")
	}
	if len(r.TaskStatuses()) == 0 {
		t.Error("expected task statuses to be loaded")
	}
	if len(r.TaskPriorities()) == 0 {
		t.Error("expected task priorities to be loaded")
	}
}

func TestRegistry_Membership(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	tests := []struct {
		name  string
		check func(string) bool
		value string
		want  bool
	}{
		{"known tag", r.IsDocumentTag, "DRAFT", true},
		{"rollback tag", r.IsDocumentTag, "ROLLBACK", true},
		{"unknown tag", r.IsDocumentTag, "draft", false},
		{"known status", r.IsTaskStatus, "PENDING", true},
		{"completed status", r.IsTaskStatus, "COMPLETED", true},
		{"unknown status", r.IsTaskStatus, "DONE", false},
		{"known priority", r.IsTaskPriority, "URGENT", true},
		{"unknown priority", r.IsTaskPriority, "CRITICAL", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.value); got != tt.want {
				t.Errorf("membership(%s) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
