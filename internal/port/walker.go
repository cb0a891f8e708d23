package port

type FileWalker interface {
	Walk(dir string) ([]FileInfo, error)
}

type FileInfo struct {
	Path string
	Size int64
}
