package observability

import (
	"net"
	"net/http"
	"strings"

	"voicechat-service/internal/telemetry"
)

// ClientInfo identifies the peer behind a websocket handshake or API call.
type ClientInfo struct {
	DeviceID  string
	IP        string
	RequestID string
}

// ClientFromRequest reads the caller identity. The request id assigned by the
// request id middleware wins over the raw header.
func ClientFromRequest(r *http.Request) ClientInfo {
	requestID := telemetry.RequestIDFromContext(r.Context())
	if requestID == "" {
		requestID = r.Header.Get("X-Request-ID")
	}
	return ClientInfo{
		DeviceID:  r.Header.Get("X-Device-Id"),
		IP:        clientIP(r),
		RequestID: requestID,
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
