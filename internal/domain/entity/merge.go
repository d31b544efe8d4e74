package entity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTargetPath 合并目标路径非法
var ErrInvalidTargetPath = errors.New("invalid target path")

// MergeRoots 允许作为合并目标的顶层子结构
var MergeRoots = []string{"characterCodex", "worldBible", "styleGuide"}

// SetAtPath 将 value 写入 targetPath 指向的映射中的 key 下
// targetPath 为点分路径，如 "characterCodex"、"worldBible.locations"；中间映射不存在时自动创建
func (s *Story) SetAtPath(targetPath, key string, value any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: key is empty", ErrInvalidTargetPath)
	}

	segments := strings.Split(strings.TrimSpace(targetPath), ".")
	for _, seg := range segments {
		if strings.TrimSpace(seg) == "" {
			return fmt.Errorf("%w: empty segment in %q", ErrInvalidTargetPath, targetPath)
		}
	}

	s.Normalize()

	var node map[string]any
	switch segments[0] {
	case "characterCodex":
		node = s.CharacterCodex
	case "worldBible":
		node = s.WorldBible
	case "styleGuide":
		node = s.StyleGuide
	default:
		return fmt.Errorf("%w: root must be one of %s, got %q", ErrInvalidTargetPath, strings.Join(MergeRoots, ", "), segments[0])
	}

	for i, seg := range segments[1:] {
		child, ok := node[seg]
		if !ok || child == nil {
			next := map[string]any{}
			node[seg] = next
			node = next
			continue
		}
		next, ok := asMap(child)
		if !ok {
			return fmt.Errorf("%w: %s is not an object", ErrInvalidTargetPath, strings.Join(segments[:i+2], "."))
		}
		node[seg] = next
		node = next
	}

	node[key] = value
	return nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case JSONMap:
		return m, true
	default:
		return nil, false
	}
}
