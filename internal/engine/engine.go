// Package engine exposes the repository façade: every mutation of the
// document/folder forest enters here, is validated against the tree
// index before any store write, and commits the in-memory structures
// only after the store accepted the change.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docshelf/internal/cache"
	"docshelf/internal/config"
	"docshelf/internal/domain"
	"docshelf/internal/domain/models"
	"docshelf/internal/nav"
	"docshelf/internal/store"
	"docshelf/internal/tree"
)

// Engine drives NodeStore, TreeIndex and ContentCache as one unit of
// work per public call. Mutations are serialized behind a single lock;
// readers may overlap a writer without observing a torn state.
type Engine struct {
	mu    sync.RWMutex
	store store.NodeStore
	idx   *tree.Index
	cache *cache.ContentCache
	paths *nav.PathResolver

	defaultAccess models.AccessLevel
	searchLimit   int
	logger        *slog.Logger
	now           func() time.Time
}

// New builds an engine over the given store and rebuilds the in-memory
// index and cache from the persisted records.
func New(ctx context.Context, st store.NodeStore, settings *config.Settings, logger *slog.Logger) (*Engine, error) {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	defaultAccess := models.AccessLevel(settings.DefaultAccessLevel)
	if !defaultAccess.Valid() {
		return nil, fmt.Errorf("default access level %q: %w", settings.DefaultAccessLevel, domain.ErrInvalidAccessLevel)
	}

	idx := tree.New()
	e := &Engine{
		store:         st,
		idx:           idx,
		cache:         cache.New(st),
		paths:         nav.NewPathResolver(idx, st),
		defaultAccess: defaultAccess,
		searchLimit:   settings.SearchLimit,
		logger:        logger,
		now:           time.Now,
	}

	nodes, err := st.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load repository: %w", err)
	}
	if err := idx.Rebuild(nodes); err != nil {
		return nil, fmt.Errorf("rebuild index: %w", err)
	}

	logger.Info("repository loaded", "nodes", idx.Len())
	return e, nil
}

// CreateFolder creates a folder under parentID (nil for top level).
func (e *Engine) CreateFolder(ctx context.Context, req *CreateFolderRequest) (*models.Node, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	level, err := e.resolveAccessLevel(req.AccessLevel)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkParent(req.ParentID); err != nil {
		return nil, err
	}

	now := e.now()
	n := &models.Node{
		ID:          uuid.NewString(),
		Kind:        models.KindFolder,
		Name:        strings.TrimSpace(req.Name),
		ParentID:    req.ParentID,
		AccessLevel: level,
		Tags:        normalizeTags(req.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
		Expanded:    req.Expanded,
	}

	if err := e.commitInsert(ctx, n); err != nil {
		return nil, err
	}

	e.logger.Info("folder created",
		"id", n.ID,
		"name", n.Name,
		"parent_id", deref(n.ParentID),
	)
	return n.Clone(), nil
}

// CreateDocument creates a document under parentID (nil for top level).
func (e *Engine) CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*models.Node, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	level, err := e.resolveAccessLevel(req.AccessLevel)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkParent(req.ParentID); err != nil {
		return nil, err
	}

	now := e.now()
	n := &models.Node{
		ID:          uuid.NewString(),
		Kind:        models.KindDocument,
		Name:        strings.TrimSpace(req.Name),
		ParentID:    req.ParentID,
		AccessLevel: level,
		Tags:        normalizeTags(req.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
		FileType:    req.FileType,
		ByteSize:    req.ByteSize,
		Version:     "v1",
		Metadata:    req.Metadata,
	}

	if err := e.commitInsert(ctx, n); err != nil {
		return nil, err
	}

	e.logger.Info("document created",
		"id", n.ID,
		"name", n.Name,
		"parent_id", deref(n.ParentID),
		"file_type", n.FileType,
	)
	return n.Clone(), nil
}

// UpdateNode applies a rename and/or an access-level change as one
// unit of work: both fields are validated before the node is touched,
// so a bad value leaves the other field unchanged too. Nil fields are
// left as they are.
func (e *Engine) UpdateNode(ctx context.Context, id string, name *string, level *models.AccessLevel) (*models.Node, error) {
	if name == nil && level == nil {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}
	var newName string
	if name != nil {
		newName = strings.TrimSpace(*name)
		if err := validateName(newName); err != nil {
			return nil, err
		}
	}
	if level != nil && !level.Valid() {
		return nil, fmt.Errorf("access level %q: %w", *level, domain.ErrInvalidAccessLevel)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	n, err := e.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		n.Name = newName
	}
	if level != nil {
		n.AccessLevel = *level
	}
	n.UpdatedAt = e.now()
	if err := e.store.Put(ctx, n); err != nil {
		return nil, err
	}
	e.cache.Invalidate(n.ParentID)

	e.logger.Info("node updated", "id", id, "name", n.Name, "level", string(n.AccessLevel))
	return n.Clone(), nil
}

// Rename updates a node's display name.
func (e *Engine) Rename(ctx context.Context, id, newName string) (*models.Node, error) {
	return e.UpdateNode(ctx, id, &newName, nil)
}

// SetAccessLevel updates a node's clearance tier.
func (e *Engine) SetAccessLevel(ctx context.Context, id string, level models.AccessLevel) (*models.Node, error) {
	return e.UpdateNode(ctx, id, nil, &level)
}

// AddTag attaches a tag to a node. Adding a tag the node already
// carries is a no-op.
func (e *Engine) AddTag(ctx context.Context, id, tag string) (*models.Node, error) {
	if err := validateTag(tag); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	n, err := e.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(n.Tags) >= config.MaxTagsPerNode {
		return nil, fmt.Errorf("%w: at most %d tags per node", domain.ErrValidation, config.MaxTagsPerNode)
	}

	if n.AddTag(tag) {
		n.UpdatedAt = e.now()
		if err := e.store.Put(ctx, n); err != nil {
			return nil, err
		}
		e.cache.Invalidate(n.ParentID)
		e.logger.Debug("tag added", "id", id, "tag", tag)
	}
	return n.Clone(), nil
}

// RemoveTag detaches a tag from a node. Removing an absent tag is a
// no-op.
func (e *Engine) RemoveTag(ctx context.Context, id, tag string) (*models.Node, error) {
	if err := validateTag(tag); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	n, err := e.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	if n.RemoveTag(tag) {
		n.UpdatedAt = e.now()
		if err := e.store.Put(ctx, n); err != nil {
			return nil, err
		}
		e.cache.Invalidate(n.ParentID)
		e.logger.Debug("tag removed", "id", id, "tag", tag)
	}
	return n.Clone(), nil
}

// UpdateDocumentRequest replaces a document's payload description.
type UpdateDocumentRequest struct {
	FileType string         `json:"file_type"`
	ByteSize int64          `json:"byte_size"`
	Metadata map[string]any `json:"metadata"`
}

// UpdateDocument replaces a document's file type, size and metadata and
// bumps its version counter.
func (e *Engine) UpdateDocument(ctx context.Context, id string, req *UpdateDocumentRequest) (*models.Node, error) {
	if req.ByteSize < 0 {
		return nil, fmt.Errorf("%w: byte size cannot be negative", domain.ErrInvalidMetadata)
	}
	for k := range req.Metadata {
		if k == "" {
			return nil, fmt.Errorf("%w: metadata keys must be non-empty", domain.ErrInvalidMetadata)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	n, err := e.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.IsFolder() {
		return nil, fmt.Errorf("node %s is a folder: %w", id, domain.ErrNotFound)
	}

	n.FileType = req.FileType
	n.ByteSize = req.ByteSize
	n.Metadata = req.Metadata
	n.Version = bumpVersion(n.Version)
	n.UpdatedAt = e.now()
	if err := e.store.Put(ctx, n); err != nil {
		return nil, err
	}
	e.cache.Invalidate(n.ParentID)

	e.logger.Info("document updated", "id", id, "version", n.Version)
	return n.Clone(), nil
}

// Delete removes a node. Deleting a folder cascades over the entire
// subtree as one unit of work: every descendant leaves the store, the
// index and the cache, and the original parent's listing is invalidated.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Stage the whole computation before any store write.
	subtree, err := e.idx.Subtree(id)
	if err != nil {
		return err
	}
	parentID, err := e.idx.Parent(id)
	if err != nil {
		return err
	}
	var folders []string
	for _, sid := range subtree {
		if e.idx.IsFolder(sid) {
			folders = append(folders, sid)
		}
	}

	// Leaf-to-root, so a child row never outlives its parent under a
	// backend that enforces the parent_id reference.
	for i := len(subtree) - 1; i >= 0; i-- {
		if err := e.store.Delete(ctx, subtree[i]); err != nil {
			return err
		}
	}

	if _, err := e.idx.Remove(id); err != nil {
		return err
	}
	e.cache.Invalidate(parentID)
	for _, fid := range folders {
		e.cache.Drop(fid)
	}
	if err := e.refreshChildCount(ctx, parentID); err != nil {
		return err
	}

	e.logger.Info("node deleted",
		"id", id,
		"subtree_size", len(subtree),
		"parent_id", deref(parentID),
	)
	return nil
}

// Move reparents a node. newParentID nil moves it to the top level.
func (e *Engine) Move(ctx context.Context, id string, newParentID *string) (*models.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.idx.Contains(id) {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	if newParentID != nil {
		if !e.idx.IsFolder(*newParentID) {
			return nil, fmt.Errorf("parent %s: %w", *newParentID, domain.ErrInvalidParent)
		}
		if *newParentID == id {
			return nil, fmt.Errorf("move %s into itself: %w", id, domain.ErrCycle)
		}
		ancestors, err := e.idx.Ancestors(*newParentID)
		if err != nil {
			return nil, err
		}
		for _, aid := range ancestors {
			if aid == id {
				return nil, fmt.Errorf("move %s under its descendant %s: %w", id, *newParentID, domain.ErrCycle)
			}
		}
	}

	n, err := e.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	oldParentID := n.ParentID
	if sameParent(oldParentID, newParentID) {
		return n.Clone(), nil
	}

	n.ParentID = newParentID
	n.UpdatedAt = e.now()
	if err := e.store.Put(ctx, n); err != nil {
		return nil, err
	}

	if err := e.idx.Move(id, newParentID); err != nil {
		return nil, err
	}
	e.cache.Invalidate(oldParentID)
	e.cache.Invalidate(newParentID)
	if err := e.refreshChildCount(ctx, oldParentID); err != nil {
		return nil, err
	}
	if err := e.refreshChildCount(ctx, newParentID); err != nil {
		return nil, err
	}

	e.logger.Info("node moved",
		"id", id,
		"from", deref(oldParentID),
		"to", deref(newParentID),
	)
	return n.Clone(), nil
}

// ToggleExpand flips a folder's UI visibility hint. The flag has no
// bearing on data correctness, so UpdatedAt is left alone.
func (e *Engine) ToggleExpand(ctx context.Context, id string) (*models.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.idx.IsFolder(id) {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	n, err := e.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	n.Expanded = !n.Expanded
	if err := e.store.Put(ctx, n); err != nil {
		return nil, err
	}
	e.cache.Invalidate(n.ParentID)

	return n.Clone(), nil
}

// Get returns a single node by id.
func (e *Engine) Get(ctx context.Context, id string) (*models.Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.idx.Contains(id) {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return e.store.Get(ctx, id)
}

// ListContents lists a folder's immediate children. folderID nil lists
// the top-level forest.
func (e *Engine) ListContents(ctx context.Context, folderID *string, filter *models.ListFilter) ([]*models.Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if folderID != nil && !e.idx.IsFolder(*folderID) {
		return nil, fmt.Errorf("folder %s: %w", *folderID, domain.ErrNotFound)
	}
	return e.cache.ListContents(ctx, folderID, filter)
}

// Search scans the whole forest for nodes matching the query by name
// substring or by tag, never folder-scoped. Results are served through
// the content cache and ordered by UpdatedAt descending.
func (e *Engine) Search(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	if opts == nil {
		opts = &models.SearchOptions{}
	}
	// The configured cap applies only when the caller left Limit unset;
	// an explicit limit wins, even one equal to the package default.
	if opts.Limit <= 0 && e.searchLimit > 0 {
		opts.Limit = e.searchLimit
	}
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	var matches []*models.Node
	if err := e.walk(ctx, nil, func(n *models.Node) {
		if searchMatch(n, opts) {
			matches = append(matches, n)
		}
	}); err != nil {
		return nil, err
	}

	sortByUpdatedDesc(matches)
	total := len(matches)
	truncated := total > opts.Limit
	if truncated {
		matches = matches[:opts.Limit]
	}
	return &models.SearchResults{
		Results:    matches,
		TotalCount: total,
		Truncated:  truncated,
	}, nil
}

// Breadcrumb returns the root-first chain for a node, ending with the
// node itself.
func (e *Engine) Breadcrumb(ctx context.Context, id string) ([]*models.Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.paths.BreadcrumbFor(ctx, id)
}

// Navigate validates a breadcrumb navigation request and returns the
// next current-path for the caller to hold.
func (e *Engine) Navigate(currentPath []string, targetID string) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.idx.Contains(targetID) {
		return nil, fmt.Errorf("node %s: %w", targetID, domain.ErrNotFound)
	}
	return nav.Navigate(currentPath, targetID), nil
}

// Tree returns the full nested forest for cold-starting UIs.
func (e *Engine) Tree(ctx context.Context) (*models.Tree, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	roots, err := e.cache.ListContents(ctx, nil, nil)
	if err != nil {
		return nil, err
	}

	t := &models.Tree{Folders: []*models.FolderTreeNode{}, Documents: []*models.Node{}}
	for _, n := range roots {
		if n.IsFolder() {
			sub, err := e.subtree(ctx, n)
			if err != nil {
				return nil, err
			}
			t.Folders = append(t.Folders, sub)
		} else {
			t.Documents = append(t.Documents, n)
		}
	}
	return t, nil
}

func (e *Engine) subtree(ctx context.Context, folder *models.Node) (*models.FolderTreeNode, error) {
	children, err := e.cache.ListContents(ctx, &folder.ID, nil)
	if err != nil {
		return nil, err
	}

	node := &models.FolderTreeNode{
		Node:      folder,
		Folders:   []*models.FolderTreeNode{},
		Documents: []*models.Node{},
	}
	for _, child := range children {
		if child.IsFolder() {
			sub, err := e.subtree(ctx, child)
			if err != nil {
				return nil, err
			}
			node.Folders = append(node.Folders, sub)
		} else {
			node.Documents = append(node.Documents, child)
		}
	}
	return node, nil
}

// walk visits every node in the forest through the content cache.
func (e *Engine) walk(ctx context.Context, folderID *string, visit func(*models.Node)) error {
	children, err := e.cache.ListContents(ctx, folderID, nil)
	if err != nil {
		return err
	}
	for _, n := range children {
		visit(n)
		if n.IsFolder() {
			if err := e.walk(ctx, &n.ID, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// commitInsert writes a new node to the store, then commits it to the
// index and invalidates the parent's listing. A storage failure leaves
// the in-memory structures untouched.
func (e *Engine) commitInsert(ctx context.Context, n *models.Node) error {
	if err := e.store.Put(ctx, n); err != nil {
		return err
	}
	if err := e.idx.Insert(n); err != nil {
		// Unwind the store write so no orphan record survives.
		if delErr := e.store.Delete(ctx, n.ID); delErr != nil {
			e.logger.Error("failed to unwind insert", "id", n.ID, "error", delErr)
		}
		return err
	}
	e.cache.Invalidate(n.ParentID)
	return e.refreshChildCount(ctx, n.ParentID)
}

// checkParent validates that parentID references an existing folder.
// Callers hold the write lock.
func (e *Engine) checkParent(parentID *string) error {
	if parentID == nil {
		return nil
	}
	if !e.idx.IsFolder(*parentID) {
		return fmt.Errorf("parent %s: %w", *parentID, domain.ErrInvalidParent)
	}
	return nil
}

// getExisting fetches a node that the index already knows about.
// Callers hold the write lock.
func (e *Engine) getExisting(ctx context.Context, id string) (*models.Node, error) {
	if !e.idx.Contains(id) {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return e.store.Get(ctx, id)
}

// refreshChildCount re-derives a folder's child count from the live
// listing and persists it when it drifted. The count is bookkeeping,
// not a content change, so UpdatedAt stays put.
func (e *Engine) refreshChildCount(ctx context.Context, folderID *string) error {
	if folderID == nil {
		return nil
	}
	count, err := e.cache.Count(ctx, folderID)
	if err != nil {
		return err
	}
	n, err := e.store.Get(ctx, *folderID)
	if err != nil {
		return err
	}
	if n.ChildCount == count {
		return nil
	}
	n.ChildCount = count
	if err := e.store.Put(ctx, n); err != nil {
		return err
	}
	// The folder's own record changed; its parent's listing shows the
	// stale count until re-read.
	e.cache.Invalidate(n.ParentID)
	return nil
}

func searchMatch(n *models.Node, opts *models.SearchOptions) bool {
	if opts.Kind != "" && n.Kind != opts.Kind {
		return false
	}
	if opts.Query != "" &&
		strings.Contains(strings.ToLower(n.Name), strings.ToLower(opts.Query)) {
		return true
	}
	for _, t := range opts.Tags {
		if n.HasTag(t) {
			return true
		}
	}
	return false
}

func sortByUpdatedDesc(nodes []*models.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].UpdatedAt.After(nodes[j].UpdatedAt)
	})
}

// bumpVersion advances a "v<n>" counter; unrecognised values restart
// at v2 since the prior version was by definition the first.
func bumpVersion(v string) string {
	if strings.HasPrefix(v, "v") {
		if n, err := strconv.Atoi(v[1:]); err == nil {
			return "v" + strconv.Itoa(n+1)
		}
	}
	return "v2"
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}
