// Package fsx 提供落盘相关的小工具（目前只有原子写）。
package fsx

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// 测试通过替换它模拟 rename 失败。
var renameFunc = os.Rename

// PathTypeConflictError 表示目标已存在但不是普通文件（例如是目录或符号链接）。
type PathTypeConflictError struct {
	Path string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("无法写入 %q：目标已存在且是 %s，不是普通文件", e.Path, e.Got)
}

// IsPathTypeConflict 判断 err 是否为 PathTypeConflictError。
func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// WriteAtomic 把 write 产生的内容原子地写到 path（覆盖旧文件），缺失的父目录会被创建。
//
// 内容先流式写入同目录下的隐藏临时文件，fsync 后再 rename 到位：
// 读者只会看到旧文件或完整的新文件。任何一步失败都会删除临时文件。
func WriteAtomic(path string, write func(io.Writer) error) error {
	path = filepath.Clean(path)
	if err := checkTarget(path); err != nil {
		return err
	}
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建目录 %q 失败：%w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("创建临时文件失败：%w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := renameFunc(tmp.Name(), path); err != nil {
		return fmt.Errorf("替换 %q 失败：%w", path, err)
	}
	committed = true

	syncDir(dir)
	return nil
}

func checkTarget(path string) error {
	fi, err := os.Lstat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return err
	case fi.Mode().IsRegular():
		return nil
	case fi.IsDir():
		return &PathTypeConflictError{Path: path, Got: "目录"}
	default:
		return &PathTypeConflictError{Path: path, Got: fi.Mode().Type().String()}
	}
}

// syncDir 让 rename 本身也落盘；失败不影响结果（Windows 不支持对目录 fsync）。
func syncDir(dir string) {
	if runtime.GOOS == "windows" {
		return
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
}
