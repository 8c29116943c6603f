package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// service access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// AppName is written into exported document metadata and log lines.
const AppName = "letterdesk"

// DefaultMaxMessageSize bounds gRPC messages in both directions. Exported
// letters travel inline and easily exceed the 4 MB gRPC default.
const DefaultMaxMessageSize = 64 << 20
