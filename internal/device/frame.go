package device

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/xerrors"
)

const (
	// DefaultArtCategory holds the images users uploaded themselves.
	DefaultArtCategory = "MY-C0002"

	artChannel     = "com.samsung.art-app"
	artDateLayout  = "2006:01:02 15:04:05"
	maxMessageSize = 4 * 1024 * 1024
)

type FrameConfig struct {
	Host string
	// Port is 8001 for plain websockets and 8002 for TLS.
	Port int
	// Name is shown on the TV when it asks to allow the connection.
	Name     string
	Category string

	HandshakeTimeout time.Duration
}

func DefaultFrameConfig() FrameConfig {
	return FrameConfig{
		Port:             8001,
		Name:             "frameshot",
		Category:         DefaultArtCategory,
		HandshakeTimeout: 10 * time.Second,
	}
}

// FrameClient speaks the art-mode channel of a Samsung Frame TV.
type FrameClient struct {
	config FrameConfig
	dialer *websocket.Dialer
	conn   *websocket.Conn
	now    func() time.Time
}

func NewFrameClient(f FrameConfig) (*FrameClient, error) {
	if f.Host == "" {
		return nil, xerrors.New("frame host is required")
	}
	d := DefaultFrameConfig()
	if f.Port == 0 {
		f.Port = d.Port
	}
	if f.Name == "" {
		f.Name = d.Name
	}
	if f.Category == "" {
		f.Category = d.Category
	}
	if f.HandshakeTimeout == 0 {
		f.HandshakeTimeout = d.HandshakeTimeout
	}

	return &FrameClient{
		config: f,
		dialer: &websocket.Dialer{
			HandshakeTimeout: f.HandshakeTimeout,
			// The TV presents a self-signed certificate on 8002.
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
		now: time.Now,
	}, nil
}

func (c *FrameClient) endpoint() string {
	scheme := "ws"
	if c.config.Port == 8002 {
		scheme = "wss"
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port)),
		Path:     "/api/v2/channels/" + artChannel,
		RawQuery: url.Values{"name": {base64.StdEncoding.EncodeToString([]byte(c.config.Name))}}.Encode(),
	}
	return u.String()
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type emitRequest struct {
	Method string     `json:"method"`
	Params emitParams `json:"params"`
}

type emitParams struct {
	Event string `json:"event"`
	To    string `json:"to"`
	Data  string `json:"data"`
}

type serviceMessage struct {
	Event       string          `json:"event"`
	ID          string          `json:"id"`
	RequestID   string          `json:"request_id"`
	ErrorCode   json.RawMessage `json:"error_code,omitempty"`
	ContentID   string          `json:"content_id,omitempty"`
	ContentList string          `json:"content_list,omitempty"`
	ConnInfo    string          `json:"conn_info,omitempty"`
}

type contentItem struct {
	ContentID  string `json:"content_id"`
	CategoryID string `json:"category_id"`
	ImageDate  string `json:"image_date"`
	MatteID    string `json:"matte_id"`
}

type connInfo struct {
	IP      string          `json:"ip"`
	Port    json.RawMessage `json:"port"`
	Key     string          `json:"key"`
	Secured bool            `json:"secured"`
}

type uploadHeader struct {
	Num        int    `json:"num"`
	Total      int    `json:"total"`
	FileLength int    `json:"fileLength"`
	FileName   string `json:"fileName"`
	FileType   string `json:"fileType"`
	SecKey     string `json:"secKey"`
	Version    string `json:"version"`
}

func (c *FrameClient) Connect(ctx context.Context) error {
	if c.conn != nil {
		return xerrors.New("already connected")
	}

	conn, _, err := c.dialer.DialContext(ctx, c.endpoint(), nil)
	if err != nil {
		return xerrors.Errorf("failed to dial %s: %w", c.config.Host, err)
	}
	conn.SetReadLimit(maxMessageSize)
	c.conn = conn

	stop := c.watch(ctx)
	defer stop()

	for {
		var e envelope
		if err := conn.ReadJSON(&e); err != nil {
			c.conn = nil
			conn.Close()
			return xerrors.Errorf("failed to open art channel: %w", err)
		}
		switch e.Event {
		case "ms.channel.ready":
			return nil
		case "ms.channel.unauthorized", "ms.channel.timeOut":
			c.conn = nil
			conn.Close()
			return xerrors.Errorf("art channel refused connection: %s", e.Event)
		}
	}
}

// watch closes the connection when ctx ends so that blocked reads return.
func (c *FrameClient) watch(ctx context.Context) func() {
	conn := c.conn
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	return func() { close(done) }
}

func (c *FrameClient) send(id string, request string, fields map[string]any) error {
	if c.conn == nil {
		return xerrors.New("not connected")
	}

	payload := map[string]any{
		"request": request,
		"id":      id,
	}
	for k, v := range fields {
		payload[k] = v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return xerrors.Errorf("failed to encode %s request: %w", request, err)
	}

	if err := c.conn.WriteJSON(emitRequest{
		Method: "ms.channel.emit",
		Params: emitParams{
			Event: "art_app_request",
			To:    "host",
			Data:  string(data),
		},
	}); err != nil {
		return xerrors.Errorf("failed to send %s request: %w", request, err)
	}
	return nil
}

// await reads until a service message answers id. When event is not empty
// the answer must also carry that event.
func (c *FrameClient) await(ctx context.Context, id string, event string) (*serviceMessage, error) {
	stop := c.watch(ctx)
	defer stop()

	for {
		var e envelope
		if err := c.conn.ReadJSON(&e); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, xerrors.Errorf("failed to read from art channel: %w", err)
		}
		if e.Event != "d2d_service_message" {
			continue
		}

		var raw string
		if err := json.Unmarshal(e.Data, &raw); err != nil {
			return nil, xerrors.Errorf("malformed service message: %w", err)
		}
		var m serviceMessage
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, xerrors.Errorf("malformed service message: %w", err)
		}

		matched := m.ID == id || m.RequestID == id
		if m.Event == "error" && matched {
			return nil, xerrors.Errorf("device returned error code %s", strings.Trim(string(m.ErrorCode), `"`))
		}
		if event != "" && m.Event != event {
			continue
		}
		if matched || (m.ID == "" && m.RequestID == "" && idlessEvents[m.Event]) {
			return &m, nil
		}
	}
}

// idlessEvents are upload events that older firmware sends without echoing
// the request id. Any other event must carry the id it answers.
var idlessEvents = map[string]bool{
	"ready_to_use": true,
	"image_added":  true,
}

func (c *FrameClient) request(ctx context.Context, request string, fields map[string]any, event string) (*serviceMessage, error) {
	id := uuid.New().String()
	if err := c.send(id, request, fields); err != nil {
		return nil, err
	}
	return c.await(ctx, id, event)
}

func (c *FrameClient) Upload(ctx context.Context, data []byte, options UploadOptions) (string, error) {
	if len(data) == 0 {
		return "", xerrors.New("empty image")
	}
	fileType := strings.ToLower(options.FileType)
	if fileType == "jpeg" {
		fileType = "jpg"
	}

	id := uuid.New().String()
	if err := c.send(id, "send_image", map[string]any{
		"request_id": id,
		"file_type":  fileType,
		"conn_info": map[string]any{
			"d2d_mode":      "socket",
			"connection_id": int(uuid.New().ID()),
			"id":            id,
		},
		"image_date":        c.now().Format(artDateLayout),
		"matte_id":          MatteID(options.MatteType, options.MatteColor),
		"portrait_matte_id": MatteID(options.MatteType, options.MatteColor),
		"file_size":         len(data),
	}); err != nil {
		return "", err
	}

	ready, err := c.await(ctx, id, "ready_to_use")
	if err != nil {
		return "", xerrors.Errorf("device did not accept upload: %w", err)
	}

	var info connInfo
	if err := json.Unmarshal([]byte(ready.ConnInfo), &info); err != nil {
		return "", xerrors.Errorf("malformed upload connection info: %w", err)
	}
	if err := c.transfer(ctx, info, fileType, data); err != nil {
		return "", err
	}

	added, err := c.await(ctx, id, "image_added")
	if err != nil {
		return "", xerrors.Errorf("device did not confirm upload: %w", err)
	}
	if added.ContentID == "" {
		return "", xerrors.New("device did not assign a content id")
	}
	return added.ContentID, nil
}

func (c *FrameClient) transfer(ctx context.Context, info connInfo, fileType string, data []byte) error {
	port, err := strconv.Atoi(strings.Trim(string(info.Port), `"`))
	if err != nil {
		return xerrors.Errorf("invalid upload port %s: %w", info.Port, err)
	}
	address := net.JoinHostPort(info.IP, strconv.Itoa(port))

	var conn net.Conn
	dialer := &net.Dialer{}
	if info.Secured {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: &tls.Config{InsecureSkipVerify: true}}).DialContext(ctx, "tcp", address)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", address)
	}
	if err != nil {
		return xerrors.Errorf("failed to open upload socket %s: %w", address, err)
	}
	defer conn.Close()

	header, err := json.Marshal(uploadHeader{
		Num:        0,
		Total:      1,
		FileLength: len(data),
		FileName:   "frameshot",
		FileType:   fileType,
		SecKey:     info.Key,
		Version:    "0.0.1",
	})
	if err != nil {
		return xerrors.Errorf("failed to encode upload header: %w", err)
	}

	size := make([]byte, 4)
	binary.BigEndian.PutUint32(size, uint32(len(header)))
	for _, chunk := range [][]byte{size, header, data} {
		if _, err := conn.Write(chunk); err != nil {
			return xerrors.Errorf("failed to write image to device: %w", err)
		}
	}
	return nil
}

// SetCurrentArt does not wait for an answer; several firmware versions
// never acknowledge select_image.
func (c *FrameClient) SetCurrentArt(ctx context.Context, id string) error {
	return c.send(uuid.New().String(), "select_image", map[string]any{
		"content_id":  id,
		"category_id": nil,
		"show":        true,
	})
}

func (c *FrameClient) AvailableArt(ctx context.Context) ([]ArtItem, error) {
	m, err := c.request(ctx, "get_content_list", map[string]any{
		"category": c.config.Category,
	}, "")
	if err != nil {
		return nil, err
	}

	var contents []contentItem
	if err := json.Unmarshal([]byte(m.ContentList), &contents); err != nil {
		return nil, xerrors.Errorf("malformed content list: %w", err)
	}

	items := make([]ArtItem, 0, len(contents))
	for _, content := range contents {
		if content.CategoryID != "" && content.CategoryID != c.config.Category {
			continue
		}
		items = append(items, toArtItem(content))
	}
	return items, nil
}

// toArtItem leaves Date zero when the device reports an unparseable date,
// which ranks the item as oldest.
func toArtItem(content contentItem) ArtItem {
	date, _ := time.ParseInLocation(artDateLayout, content.ImageDate, time.Local)
	matteType, matteColor := ParseMatteID(content.MatteID)
	return ArtItem{
		ID:         content.ContentID,
		Date:       date,
		MatteType:  matteType,
		MatteColor: matteColor,
		Category:   content.CategoryID,
	}
}

func (c *FrameClient) DeleteArt(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	list := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		list = append(list, map[string]string{"content_id": id})
	}
	if _, err := c.request(ctx, "delete_image_list", map[string]any{
		"content_id_list": list,
	}, "image_deleted"); err != nil {
		return xerrors.Errorf("failed to delete %d items: %w", len(ids), err)
	}
	return nil
}

func (c *FrameClient) Close() error {
	if c.conn == nil {
		return nil
	}
	conn := c.conn
	c.conn = nil

	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	if err := conn.Close(); err != nil {
		return xerrors.Errorf("failed to close art channel: %w", err)
	}
	return nil
}

func (c *FrameClient) String() string {
	return fmt.Sprintf("frame(%s)", c.config.Host)
}
