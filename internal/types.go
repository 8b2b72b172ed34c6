package internal

// FileInfo is the public metadata record of a shared file
type FileInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
}

// ResolvedLink pairs a share URL with the direct link it resolved to
type ResolvedLink struct {
	ShareURL  string `json:"share_url"`
	DirectURL string `json:"direct_url"`
}
