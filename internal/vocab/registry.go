package vocab

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// vocabulary is the YAML shape of one named value set.
type vocabulary struct {
	Values []string `yaml:"values"`
}

// vocabFile is the root of config/vocab.yaml.
type vocabFile struct {
	DocumentTags   vocabulary `yaml:"document_tags"`
	TaskStatuses   vocabulary `yaml:"task_statuses"`
	TaskPriorities vocabulary `yaml:"task_priorities"`
}

// Registry holds the fixed value vocabularies: document lifecycle tags and
// task statuses/priorities. Values are validated at the service boundary;
// the database stores them as plain text.
type Registry struct {
	documentTags   map[string]struct{}
	taskStatuses   map[string]struct{}
	taskPriorities map[string]struct{}

	documentTagList  []string
	taskStatusList   []string
	taskPriorityList []string
}

// NewRegistry loads the embedded vocabulary file.
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/vocab.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read vocab.yaml: %w", err)
	}

	var file vocabFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vocab.yaml: %w", err)
	}

	r := &Registry{
		documentTags:     toSet(file.DocumentTags.Values),
		taskStatuses:     toSet(file.TaskStatuses.Values),
		taskPriorities:   toSet(file.TaskPriorities.Values),
		documentTagList:  file.DocumentTags.Values,
		taskStatusList:   file.TaskStatuses.Values,
		taskPriorityList: file.TaskPriorities.Values,
	}

	if len(r.documentTags) == 0 || len(r.taskStatuses) == 0 || len(r.taskPriorities) == 0 {
		return nil, fmt.Errorf("vocab.yaml is missing one or more value sets")
	}

	return r, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// IsDocumentTag reports whether tag is in the document tag vocabulary.
func (r *Registry) IsDocumentTag(tag string) bool {
	_, ok := r.documentTags[tag]
	return ok
}

// IsTaskStatus reports whether status is in the task status vocabulary.
func (r *Registry) IsTaskStatus(status string) bool {
	_, ok := r.taskStatuses[status]
	return ok
}

// IsTaskPriority reports whether priority is in the priority vocabulary.
func (r *Registry) IsTaskPriority(priority string) bool {
	_, ok := r.taskPriorities[priority]
	return ok
}

// DocumentTags returns the tag vocabulary in file order.
func (r *Registry) DocumentTags() []string {
	return r.documentTagList
}

// TaskStatuses returns the status vocabulary in file order.
func (r *Registry) TaskStatuses() []string {
	return r.taskStatusList
}

// TaskPriorities returns the priority vocabulary in file order.
func (r *Registry) TaskPriorities() []string {
	return r.taskPriorityList
}
