package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTitle(t *testing.T) {
	assert.NoError(t, ValidateTitle("Intro to Algebra"))
	assert.Error(t, ValidateTitle(""))
	assert.Error(t, ValidateTitle("   "))
	assert.Error(t, ValidateTitle(strings.Repeat("a", 201)))
	assert.NoError(t, ValidateTitle(strings.Repeat("я", 200)))
}

func TestValidateFilename(t *testing.T) {
	assert.NoError(t, ValidateFilename("lesson-01.mp4"))
	assert.Error(t, ValidateFilename(""))
	assert.Error(t, ValidateFilename("../etc/passwd"))
	assert.Error(t, ValidateFilename("a/b.mp4"))
	assert.Error(t, ValidateFilename("a\\b.mp4"))
}

func TestValidateVideoContentType(t *testing.T) {
	assert.NoError(t, ValidateVideoContentType("video/mp4"))
	assert.NoError(t, ValidateVideoContentType("Video/MP4; codecs=avc1"))
	assert.Error(t, ValidateVideoContentType("application/x-msdownload"))
	assert.Error(t, ValidateVideoContentType(""))
}
