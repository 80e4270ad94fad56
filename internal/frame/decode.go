package frame

import (
	"strings"
	"unicode/utf8"
)

// Decode parses exactly one client frame from data; a frame never spans
// WebSocket messages. It tolerates "\n" and "\r\n" line endings, mixed
// within the same frame, and an optional trailing NUL terminator on the
// body.
func Decode(data []byte) (ClientFrame, error) {
	lines, bodyStart, ok := splitHeaderLines(data)
	if !ok {
		return ClientFrame{}, parseErrorf("missing blank line terminating header section")
	}
	if len(lines) == 0 {
		return ClientFrame{}, parseErrorf("command undetected")
	}

	command := lines[0]
	headers := make(map[string]string, len(lines)-1)
	for _, line := range lines[1:] {
		name, value, ok := splitHeaderLine(line)
		if !ok {
			return ClientFrame{}, parseErrorf("malformed header %q", line)
		}
		headers[name] = value
	}

	body := stripTrailingNUL(data[bodyStart:])

	switch command {
	case CmdDisconnect:
		return ClientFrame{Kind: KindDisconnect}, nil
	case CmdSubscribe:
		return decodeSubscribe(headers)
	case CmdUnsubscribe:
		return decodeUnsubscribe(headers)
	case CmdSend:
		return decodeSend(headers, body)
	default:
		return ClientFrame{}, parseErrorf("unrecognized command %q", command)
	}
}

// splitHeaderLines walks data line by line (LF or CRLF terminated),
// collecting the command and header lines up to the first blank line. It
// returns those lines, the index in data right after that blank line's
// terminator (where the body begins), and whether a blank line was found at
// all.
func splitHeaderLines(data []byte) (lines []string, bodyStart int, ok bool) {
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] != '\n' {
			continue
		}

		end := i
		if end > start && data[end-1] == '\r' {
			end--
		}
		line := string(data[start:end])

		if line == "" {
			return lines, i + 1, true
		}
		lines = append(lines, line)
		start = i + 1
	}
	return lines, 0, false
}

// splitHeaderLine splits "name:value" on exactly one colon. No trimming, no
// escape sequences — more or fewer than two fields is a parse error.
func splitHeaderLine(line string) (name, value string, ok bool) {
	parts := strings.Split(line, ":")
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func stripTrailingNUL(body []byte) []byte {
	if len(body) > 0 && body[len(body)-1] == 0 {
		return body[:len(body)-1]
	}
	return body
}

// DecodeServerFrame parses a generic command/headers/text frame without
// interpreting the command — used to verify that Encode round-trips
// arbitrary server frames.
func DecodeServerFrame(data []byte) (ServerFrame, error) {
	lines, bodyStart, ok := splitHeaderLines(data)
	if !ok {
		return ServerFrame{}, parseErrorf("missing blank line terminating header section")
	}
	if len(lines) == 0 {
		return ServerFrame{}, parseErrorf("command undetected")
	}

	headers := make(map[string]string, len(lines)-1)
	for _, line := range lines[1:] {
		name, value, ok := splitHeaderLine(line)
		if !ok {
			return ServerFrame{}, parseErrorf("malformed header %q", line)
		}
		headers[name] = value
	}

	return ServerFrame{
		Command: lines[0],
		Headers: headers,
		Text:    string(stripTrailingNUL(data[bodyStart:])),
	}, nil
}

func decodeSubscribe(headers map[string]string) (ClientFrame, error) {
	destination, ok := headers[HeaderDestination]
	if !ok || destination == "" {
		return ClientFrame{}, parseErrorf("SUBSCRIBE requires a non-empty %q header", HeaderDestination)
	}
	id, ok := headers[HeaderID]
	if !ok || id == "" {
		return ClientFrame{}, parseErrorf("SUBSCRIBE requires a non-empty %q header", HeaderID)
	}
	return ClientFrame{Kind: KindSubscribe, Destination: destination, SubscribeID: id}, nil
}

func decodeUnsubscribe(headers map[string]string) (ClientFrame, error) {
	id, ok := headers[HeaderID]
	if !ok || id == "" {
		return ClientFrame{}, parseErrorf("UNSUBSCRIBE requires a non-empty %q header", HeaderID)
	}
	return ClientFrame{Kind: KindUnsubscribe, UnsubscribeID: id}, nil
}

func decodeSend(headers map[string]string, body []byte) (ClientFrame, error) {
	action, ok := headers[HeaderAction]
	if !ok {
		return ClientFrame{}, parseErrorf("SEND requires an %q header", HeaderAction)
	}

	switch action {
	case ActionCreate:
		destination, ok := headers[HeaderDestination]
		if !ok || destination == "" {
			return ClientFrame{}, parseErrorf("SEND CREATE requires a non-empty %q header", HeaderDestination)
		}
		text, err := validText(body)
		if err != nil {
			return ClientFrame{}, err
		}
		return ClientFrame{Kind: KindSendCreate, Destination: destination, Text: text}, nil
	case ActionUpdate:
		id, ok := headers[HeaderID]
		if !ok || id == "" {
			return ClientFrame{}, parseErrorf("SEND UPDATE requires a non-empty %q header", HeaderID)
		}
		text, err := validText(body)
		if err != nil {
			return ClientFrame{}, err
		}
		return ClientFrame{Kind: KindSendUpdate, ID: id, Text: text}, nil
	case ActionDelete:
		id, ok := headers[HeaderID]
		if !ok || id == "" {
			return ClientFrame{}, parseErrorf("SEND DELETE requires a non-empty %q header", HeaderID)
		}
		return ClientFrame{Kind: KindSendDelete, ID: id}, nil
	default:
		return ClientFrame{}, parseErrorf("unrecognized SEND action %q", action)
	}
}

func validText(body []byte) (string, error) {
	if !utf8.Valid(body) {
		return "", parseErrorf("body is not valid UTF-8")
	}
	return string(body), nil
}
