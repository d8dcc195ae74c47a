package params

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"cmm/types"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "CMM_"

// Decode 将 YAML 参数叠加到 base 上，未知键名返回错误
func Decode(r io.Reader, base Params) (Params, error) {
	p := base.Clone()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return p, nil
		}
		return base, fmt.Errorf("%w: %v", types.ErrInvalidParameter, err)
	}
	return p, nil
}

// Load 从文件加载参数，叠加到默认值上
func Load(filename string) (Params, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Params{}, err
	}
	defer file.Close()
	p, err := Decode(file, Default())
	if err != nil {
		return Params{}, fmt.Errorf("load %s: %w", filename, err)
	}
	return p, nil
}

// Encode 以 YAML 格式写出参数
func Encode(w io.Writer, p Params) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	return enc.Close()
}

// Save 保存参数到文件
func Save(filename string, p Params) error {
	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		return err
	}
	return os.WriteFile(filename, buf.Bytes(), 0o644)
}

// Set 按 YAML 键名设置单个参数，形如 "lambda_roof=1.2"
func Set(p Params, assignment string) (Params, error) {
	key, value, ok := strings.Cut(assignment, "=")
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if !ok || key == "" {
		return p, types.NewValidationError(assignment, "expected key=value")
	}
	out, err := Decode(strings.NewReader(key+": "+value+"\n"), p)
	if err != nil {
		return p, types.NewValidationError(key, "%v", err)
	}
	return out, nil
}

// ApplyEnv 读取 CMM_ 前缀的环境变量覆盖参数
func ApplyEnv(p Params) (Params, error) {
	return applyEnv(p, env.Options{Prefix: EnvPrefix})
}

func applyEnv(p Params, opts env.Options) (Params, error) {
	out := p.Clone()
	if err := env.ParseWithOptions(&out, opts); err != nil {
		return p, fmt.Errorf("parse env: %w", err)
	}
	return out, nil
}
