package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client talks to a running daemon over its Unix socket.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the daemon socket at socketPath.
func Dial(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the connection.
func (c *Client) Close() error { return c.conn.Close() }

func invoke[Resp any](ctx context.Context, c *Client, method string, in any) (*Resp, error) {
	out := new(Resp)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c, "Status", &StatusRequest{})
}

func (c *Client) Conversations(ctx context.Context) (*ConversationsResponse, error) {
	return invoke[ConversationsResponse](ctx, c, "Conversations", &ConversationsRequest{})
}

func (c *Client) OpenConversation(ctx context.Context, key string) (*OpenConversationResponse, error) {
	return invoke[OpenConversationResponse](ctx, c, "OpenConversation", &OpenConversationRequest{Key: key})
}

func (c *Client) CloseConversation(ctx context.Context) error {
	_, err := invoke[Empty](ctx, c, "CloseConversation", &CloseConversationRequest{})
	return err
}

func (c *Client) Log(ctx context.Context, key string, limit int) (*LogResponse, error) {
	return invoke[LogResponse](ctx, c, "Log", &LogRequest{Key: key, Limit: limit})
}

func (c *Client) SendText(ctx context.Context, body string) (*SendTextResponse, error) {
	return invoke[SendTextResponse](ctx, c, "SendText", &SendTextRequest{Body: body})
}

func (c *Client) Stage(ctx context.Context, path string) (*StageResponse, error) {
	return invoke[StageResponse](ctx, c, "Stage", &StageRequest{Path: path})
}

func (c *Client) CancelStage(ctx context.Context) (*CancelStageResponse, error) {
	return invoke[CancelStageResponse](ctx, c, "CancelStage", &CancelStageRequest{})
}

func (c *Client) SendFile(ctx context.Context, body, path string) (*SendFileResponse, error) {
	return invoke[SendFileResponse](ctx, c, "SendFile", &SendFileRequest{Body: body, Path: path})
}

func (c *Client) CreateGroup(ctx context.Context, req CreateGroupRequest) (*CreateGroupResponse, error) {
	return invoke[CreateGroupResponse](ctx, c, "CreateGroup", &req)
}

func (c *Client) Refresh(ctx context.Context) (*RefreshResponse, error) {
	return invoke[RefreshResponse](ctx, c, "Refresh", &RefreshRequest{})
}

func (c *Client) Search(ctx context.Context, query, key string, limit int) (*SearchResponse, error) {
	return invoke[SearchResponse](ctx, c, "Search", &SearchRequest{Query: query, Key: key, Limit: limit})
}

func (c *Client) Download(ctx context.Context, file, name, dir string) (*DownloadResponse, error) {
	return invoke[DownloadResponse](ctx, c, "Download", &DownloadRequest{File: file, Name: name, Dir: dir})
}

// WatchStream receives events from Watch.
type WatchStream struct {
	stream grpc.ClientStream
}

// Recv blocks for the next event.
func (w *WatchStream) Recv() (*Event, error) {
	evt := new(Event)
	if err := w.stream.RecvMsg(evt); err != nil {
		return nil, err
	}
	return evt, nil
}

// Watch subscribes to daemon events whose kind starts with namespace.
func (c *Client) Watch(ctx context.Context, namespace string) (*WatchStream, error) {
	stream, err := c.conn.NewStream(ctx, &ChatServiceDesc.Streams[0], "/"+ServiceName+"/Watch")
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&WatchRequest{Namespace: namespace}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &WatchStream{stream: stream}, nil
}
