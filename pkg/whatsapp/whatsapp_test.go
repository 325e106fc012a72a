package whatsapp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

func TestSessionDSN(t *testing.T) {
	driver, dsn, err := sessionDSN(Config{SessionDir: "/tmp/wa"})
	require.NoError(t, err)
	assert.Equal(t, SessionDriverSQLite, driver)
	assert.Equal(t, "file:/tmp/wa/whatsapp.db?_foreign_keys=on", dsn)

	driver, dsn, err = sessionDSN(Config{SessionDriver: SessionDriverPostgres, PostgresDSN: "postgres://db/wa"})
	require.NoError(t, err)
	assert.Equal(t, SessionDriverPostgres, driver)
	assert.Equal(t, "postgres://db/wa", dsn)

	_, _, err = sessionDSN(Config{SessionDriver: SessionDriverPostgres})
	assert.Error(t, err)

	_, _, err = sessionDSN(Config{SessionDriver: "mongo"})
	assert.Error(t, err)
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		msg  *waProto.Message
		want string
	}{
		{name: "nil", msg: nil, want: ""},
		{name: "conversation", msg: &waProto.Message{Conversation: proto.String("si")}, want: "si"},
		{
			name: "extended text",
			msg:  &waProto.Message{ExtendedTextMessage: &waProto.ExtendedTextMessage{Text: proto.String("no gracias")}},
			want: "no gracias",
		},
		{
			name: "list reply",
			msg:  &waProto.Message{ListResponseMessage: &waProto.ListResponseMessage{Title: proto.String("Contactar")}},
			want: "Contactar",
		},
		{name: "image without caption", msg: &waProto.Message{ImageMessage: &waProto.ImageMessage{}}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractText(tt.msg))
		})
	}
}

func TestExtractSender(t *testing.T) {
	lid := types.JID{User: "12345678901234", Server: types.HiddenUserServer}
	known := func(_ context.Context, j types.JID) (types.JID, error) {
		if j.User == lid.User {
			return types.NewJID("573001112233", types.DefaultUserServer), nil
		}
		return types.JID{}, nil
	}
	failing := func(context.Context, types.JID) (types.JID, error) {
		return types.JID{}, errors.New("store closed")
	}

	tests := []struct {
		name    string
		sender  types.JID
		resolve lidResolver
		want    string
		wantOK  bool
	}{
		{
			name:   "phone number",
			sender: types.JID{User: "573001112233", Device: 3, Server: types.DefaultUserServer},
			want:   "573001112233@s.whatsapp.net",
			wantOK: true,
		},
		{name: "lid resolved", sender: lid, resolve: known, want: "573001112233@s.whatsapp.net", wantOK: true},
		{name: "lid unknown", sender: types.JID{User: "999", Server: types.HiddenUserServer}, resolve: known},
		{name: "lid store error", sender: lid, resolve: failing},
		{name: "lid without store", sender: lid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractSender(context.Background(), tt.sender, tt.resolve)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMediaTypeFor(t *testing.T) {
	assert.Equal(t, whatsmeow.MediaImage, mediaTypeFor("image/png"))
	assert.Equal(t, whatsmeow.MediaVideo, mediaTypeFor("video/mp4"))
	assert.Equal(t, whatsmeow.MediaAudio, mediaTypeFor("audio/ogg"))
	assert.Equal(t, whatsmeow.MediaDocument, mediaTypeFor("application/pdf"))
}

func TestRenderQRDataURL(t *testing.T) {
	dataURL, err := RenderQRDataURL("2@abc,def,ghi")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))

	var buf bytes.Buffer
	PrintQR("2@abc,def,ghi", &buf)
	assert.NotZero(t, buf.Len())
}

func TestCheckSessionFolder(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	dir := filepath.Join(t.TempDir(), ".wa_session")
	require.NoError(t, CheckSessionFolder(dir, logger))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	broken := filepath.Join(t.TempDir(), "session-file")
	require.NoError(t, os.WriteFile(broken, []byte("not a folder"), 0o600))
	require.NoError(t, CheckSessionFolder(broken, logger))
	info, err = os.Stat(broken)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
