package filegate_test

import (
	"testing"
	"time"

	"github.com/sagarc03/filegate"
	"github.com/stretchr/testify/assert"
)

func TestFileMeta_Validate(t *testing.T) {
	valid := filegate.FileMeta{
		Key:         "u1/1_a.txt",
		Filename:    "a.txt",
		ContentType: "text/plain",
		Size:        1,
		UserID:      "u1",
		CreatedAt:   time.Now(),
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(m *filegate.FileMeta)
	}{
		{"empty key", func(m *filegate.FileMeta) { m.Key = "" }},
		{"blank filename", func(m *filegate.FileMeta) { m.Filename = "  " }},
		{"empty content type", func(m *filegate.FileMeta) { m.ContentType = "" }},
		{"empty user", func(m *filegate.FileMeta) { m.UserID = "" }},
		{"zero size", func(m *filegate.FileMeta) { m.Size = 0 }},
		{"zero created at", func(m *filegate.FileMeta) { m.CreatedAt = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			assert.ErrorIs(t, m.Validate(), filegate.ErrInvalidInput)
		})
	}
}

func TestPageQuery(t *testing.T) {
	assert.NoError(t, filegate.PageQuery{Page: 0, Size: 1}.Validate())
	assert.ErrorIs(t, filegate.PageQuery{Page: -1, Size: 1}.Validate(), filegate.ErrInvalidInput)
	assert.ErrorIs(t, filegate.PageQuery{Page: 0, Size: 0}.Validate(), filegate.ErrInvalidInput)

	assert.Equal(t, int64(0), filegate.PageQuery{Page: 0, Size: 20}.Offset())
	assert.Equal(t, int64(40), filegate.PageQuery{Page: 2, Size: 20}.Offset())
}

func TestNewPage(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		size      int
		wantPages int
	}{
		{"empty", 0, 20, 0},
		{"exact", 40, 20, 2},
		{"remainder", 41, 20, 3},
		{"single", 1, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filegate.NewPage(nil, filegate.PageQuery{Page: 1, Size: tt.size}, tt.total)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.total, p.TotalElements)
			assert.Equal(t, 1, p.Page)
			assert.NotNil(t, p.Items)
			assert.Empty(t, p.Items)
		})
	}
}

func TestTables_Validate(t *testing.T) {
	assert.NoError(t, filegate.Tables{FileMeta: "file_meta"}.Validate())
	assert.Error(t, filegate.Tables{}.Validate())
	assert.Error(t, filegate.Tables{FileMeta: "File-Meta"}.Validate())
	assert.Error(t, filegate.Tables{FileMeta: "1meta"}.Validate())
}
