package allowlist

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeCSV(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

type fakeSource struct {
	phones []string
	err    error
}

func (f *fakeSource) Phones(context.Context) ([]string, error) { return f.phones, f.err }
func (f *fakeSource) Path() string { return "fake.csv" }

type sizeRecorder struct {
	size int
}

func (s *sizeRecorder) RecordDispatch(string, error) {}
func (s *sizeRecorder) RecordTick(time.Duration, int, error) {}
func (s *sizeRecorder) RecordTickSkipped() {}
func (s *sizeRecorder) RecordInbound(string) {}
func (s *sizeRecorder) SetAllowListSize(size int) { s.size = size }
func (s *sizeRecorder) Handler() http.Handler { return nil }

func TestReloadNormalizesPhones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "EnvioWS.csv")
	writeCSV(t, path, "nombre,celular\nAna,\"+57 300-111-2233 \"\nLuis,12345\n")

	p := New(NewCSVSource(path), testLogger(), nil)
	require.NoError(t, p.Reload(context.Background()))

	assert.True(t, p.Contains("573001112233"))
	assert.False(t, p.Contains("12345"))
	assert.Equal(t, 1, p.Size())
}

func TestReloadColumnPriority(t *testing.T) {
	phones, err := ReadPhones(context.Background(), strings.NewReader(
		"Telefono,Numero,CELULAR\n"+
			"3000000001,3000000002,3000000003\n"+
			"3000000004,3000000005,\n"+
			"3000000006,,\n"+
			",,\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"3000000003", "3000000005", "3000000006"}, phones)
}

func TestReloadReplacesWholeSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "EnvioWS.csv")
	writeCSV(t, path, "celular\n3001112233\n3004445566\n")

	p := New(NewCSVSource(path), testLogger(), nil)
	require.NoError(t, p.Reload(context.Background()))
	require.Equal(t, 2, p.Size())

	writeCSV(t, path, "celular\n3007778899\n")
	require.NoError(t, p.Reload(context.Background()))

	assert.False(t, p.Contains("3001112233"))
	assert.False(t, p.Contains("3004445566"))
	assert.True(t, p.Contains("3007778899"))
}

func TestReloadFailureKeepsPreviousSnapshot(t *testing.T) {
	src := &fakeSource{phones: []string{"3001112233"}}
	p := New(src, testLogger(), nil)
	require.NoError(t, p.Reload(context.Background()))

	src.err = errors.New("disk gone")
	assert.Error(t, p.Reload(context.Background()))
	assert.True(t, p.Contains("3001112233"))
}

func TestReloadWithoutPhoneColumn(t *testing.T) {
	_, err := ReadPhones(context.Background(), strings.NewReader("nombre,email\nAna,a@b.c\n"))
	assert.ErrorIs(t, err, ErrNoPhoneColumn)
}

func TestReloadReportsSize(t *testing.T) {
	rec := &sizeRecorder{}
	p := New(&fakeSource{phones: []string{"3001112233", "3001112233", "573004445566"}}, testLogger(), rec)

	require.NoError(t, p.Reload(context.Background()))
	assert.Equal(t, 2, rec.size)
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "EnvioWS.csv")
	writeCSV(t, path, "celular\n3001112233\n")

	p := New(NewCSVSource(path), testLogger(), nil)
	require.NoError(t, p.Reload(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Watch(ctx, 20*time.Millisecond) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeCSV(t, path, "celular\n3009998877\n")

	require.Eventually(t, func() bool {
		return p.Contains("3009998877")
	}, 3*time.Second, 20*time.Millisecond)
	assert.False(t, p.Contains("3001112233"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
