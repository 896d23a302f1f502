package models

// Tree is the nested forest view served to cold-starting UIs.
type Tree struct {
	Folders   []*FolderTreeNode `json:"folders"`
	Documents []*Node           `json:"documents"`
}

// FolderTreeNode is a folder in the tree with its nested children.
type FolderTreeNode struct {
	Node      *Node             `json:"folder"`
	Folders   []*FolderTreeNode `json:"folders"`
	Documents []*Node           `json:"documents"`
}
