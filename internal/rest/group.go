package rest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/matheus3301/crmchat/internal/chat"
)

var validate = validator.New()

// ErrInvalidGroup is wrapped by CreateGroup when the request fails
// validation; nothing is sent.
var ErrInvalidGroup = errors.New("invalid group")

// CreateGroupRequest describes a new group. The creator becomes its admin
// and is added to Members when missing.
type CreateGroupRequest struct {
	Name      string   `json:"name" validate:"required,max=100"`
	ImagePath string   `json:"imagePath,omitempty" validate:"omitempty,filepath"`
	Members   []string `json:"members" validate:"min=1,dive,required"`
}

// CreateGroup posts the multipart group form and returns the created group.
func (c *Client) CreateGroup(ctx context.Context, req CreateGroupRequest) (chat.Group, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			return chat.Group{}, fmt.Errorf("create group: %w: field %s failed %q", ErrInvalidGroup, vErrs[0].Field(), vErrs[0].Tag())
		}
		return chat.Group{}, fmt.Errorf("create group: %w: %v", ErrInvalidGroup, err)
	}

	members := slices.Clone(req.Members)
	if !slices.Contains(members, c.userID) {
		members = append(members, c.userID)
	}

	r := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"groupName":       req.Name,
			"groupAdmin":      c.userID,
			"selectedMembers": strings.Join(members, ","),
		}).
		SetResult(&groupResponse{})
	if req.ImagePath != "" {
		r.SetFile("image", req.ImagePath)
	}

	resp, err := r.Post("/chat/createGroup")
	if err != nil {
		return chat.Group{}, fmt.Errorf("create group: %w", err)
	}
	if resp.IsError() {
		return chat.Group{}, &StatusError{Op: "create group", Code: resp.StatusCode(), Body: truncate(resp.String(), 200)}
	}
	g := resp.Result().(*groupResponse).ChatGroup
	if g.ID == "" {
		return chat.Group{}, errors.New("create group: response carries no group")
	}
	return g, nil
}
