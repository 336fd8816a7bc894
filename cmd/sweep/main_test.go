package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"photogallery/internal/service"
)

func TestExecMode(t *testing.T) {
	tests := []struct {
		name  string
		tty   bool
		force bool
		want  service.ExecMode
	}{
		{"cron", false, false, service.Batch},
		{"terminal", true, false, service.Interactive},
		{"terminal with override", true, true, service.Batch},
		{"pipe with override", false, true, service.Batch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, execMode(tt.tty, tt.force))
		})
	}
}
