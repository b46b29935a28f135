package aboutpage

import (
	"context"
	"fmt"
	"strings"

	"aboutpage-backend/internal/pageconfig"
	"aboutpage-backend/internal/recommended"
)

const (
	// Capability required to see the page.
	Capability = "activate_plugins"
	// ParentMenu is the host menu the page hangs under (Appearance).
	ParentMenu = "themes.php"
)

// Actions is what the controller needs from the recommended-actions engine.
type Actions interface {
	ComputeOutstanding(ctx context.Context) int
	Statuses(ctx context.Context) ([]recommended.ItemStatus, error)
}

// Translator renders a UI string; nil means identity.
type Translator func(string) string

type Options struct {
	AjaxURL           string
	TemplateDirectory string
	Translate         Translator
}

// Controller assembles everything the host admin needs for the about page.
type Controller struct {
	theme   pageconfig.ThemeArgs
	blocks  []pageconfig.Block
	actions Actions
	opts    Options
}

func NewController(theme pageconfig.ThemeArgs, blocks []pageconfig.Block, actions Actions, opts Options) *Controller {
	if opts.Translate == nil {
		opts.Translate = func(s string) string { return s }
	}
	return &Controller{
		theme:   theme,
		blocks:  append([]pageconfig.Block(nil), blocks...),
		actions: actions,
		opts:    opts,
	}
}

// MenuEntry is the admin menu registration.
type MenuEntry struct {
	ParentSlug      string `json:"parentSlug"`
	PageTitle       string `json:"pageTitle"`
	MenuTitle       string `json:"menuTitle"`
	Capability      string `json:"capability"`
	MenuSlug        string `json:"menuSlug"`
	RequiredActions int    `json:"requiredActions"`
}

// ScriptPayload is localized into the admin script as tiAboutPageObject.
type ScriptPayload struct {
	MenuName          string `json:"menu_name"`
	NrActionsRequired int    `json:"nr_actions_required"`
	AjaxURL           string `json:"ajaxurl"`
	TemplateDirectory string `json:"template_directory"`
	ActivatingString  string `json:"activating_string"`
}

// Tab is one rendered block. Items is set only on the recommended actions tab.
type Tab struct {
	Key    string                   `json:"key,omitempty"`
	Type   string                   `json:"type,omitempty"`
	Fields map[string]any           `json:"fields"`
	Items  []recommended.ItemStatus `json:"items,omitempty"`
}

// PageView is the data the tab renderer paints.
type PageView struct {
	Theme           pageconfig.ThemeArgs `json:"theme"`
	MenuName        string               `json:"menuName"`
	RequiredActions int                  `json:"requiredActions"`
	Tabs            []Tab                `json:"tabs"`
}

// Registered reports whether the theme identity is complete enough to show
// the page at all.
func (c *Controller) Registered() bool {
	return strings.TrimSpace(c.theme.Name) != "" && strings.TrimSpace(c.theme.Slug) != ""
}

func (c *Controller) MenuName() string {
	return strings.TrimSpace(c.opts.Translate("About") + " " + c.theme.Name)
}

func (c *Controller) MenuSlug() string {
	return c.theme.Slug + "-welcome"
}

// ScreenID is the host screen id of the about page.
func (c *Controller) ScreenID() string {
	return "appearance_page_" + c.MenuSlug()
}

// Badge renders the counter shown next to the menu label, empty for 0.
func Badge(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf(`<span class="badge-action-count">%d</span>`, n)
}

// MenuEntry returns nil when the theme has no name or slug.
func (c *Controller) MenuEntry(ctx context.Context) *MenuEntry {
	if !c.Registered() {
		return nil
	}
	n := c.outstanding(ctx)
	name := c.MenuName()
	title := name
	if badge := Badge(n); badge != "" {
		title = name + " " + badge
	}
	return &MenuEntry{
		ParentSlug:      ParentMenu,
		PageTitle:       name,
		MenuTitle:       title,
		Capability:      Capability,
		MenuSlug:        c.MenuSlug(),
		RequiredActions: n,
	}
}

// ScriptPayload returns nil unless screenID is the about page screen.
func (c *Controller) ScriptPayload(ctx context.Context, screenID string) *ScriptPayload {
	if !c.Registered() || screenID == "" || screenID != c.ScreenID() {
		return nil
	}
	return &ScriptPayload{
		MenuName:          c.MenuName(),
		NrActionsRequired: c.outstanding(ctx),
		AjaxURL:           c.opts.AjaxURL,
		TemplateDirectory: c.opts.TemplateDirectory,
		ActivatingString:  c.opts.Translate("Activating"),
	}
}

// RenderView passes the configured blocks through, annotating the first
// recommended actions block with live item status. The required count is
// taken from those statuses so each item is probed once per render.
func (c *Controller) RenderView(ctx context.Context) (PageView, error) {
	view := PageView{
		Theme:    c.theme,
		MenuName: c.MenuName(),
		Tabs:     make([]Tab, 0, len(c.blocks)),
	}
	annotated := false
	for _, b := range c.blocks {
		tab := Tab{Key: b.Key, Type: b.Type, Fields: b.Fields}
		if !annotated && b.Type == pageconfig.RecommendedActionsType && c.actions != nil {
			statuses, err := c.actions.Statuses(ctx)
			if err != nil {
				return PageView{}, err
			}
			tab.Items = statuses
			view.RequiredActions = recommended.CountOutstanding(statuses)
			annotated = true
		}
		view.Tabs = append(view.Tabs, tab)
	}
	return view, nil
}

func (c *Controller) outstanding(ctx context.Context) int {
	if c.actions == nil {
		return 0
	}
	return c.actions.ComputeOutstanding(ctx)
}
