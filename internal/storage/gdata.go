package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quasilyte/gdata/v2"
)

// Gdata stores each owner as a gdata object and each key as one of its properties,
// using the platform's per-user application data location.
type Gdata struct {
	manager *gdata.Manager
}

// OpenGdata opens the gdata store for appName.
func OpenGdata(appName string) (*Gdata, error) {
	if strings.TrimSpace(appName) == "" {
		return nil, errors.New("gdata app name is required")
	}
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open gdata: %w", err)
	}
	return &Gdata{manager: m}, nil
}

func (g *Gdata) Scope(owner string) (KV, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	return &gdataKV{m: g.manager, owner: strings.ToLower(owner)}, nil
}

func (g *Gdata) Close() error {
	return nil
}

type gdataKV struct {
	m     *gdata.Manager
	owner string
}

func (kv *gdataKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if !kv.m.ObjectPropExists(kv.owner, key) {
		return "", false, nil
	}
	data, err := kv.m.LoadObjectProp(kv.owner, key)
	if err != nil {
		return "", false, fmt.Errorf("load %s: %w", key, err)
	}
	return string(data), true, nil
}

func (kv *gdataKV) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}
	if err := kv.m.SaveObjectProp(kv.owner, key, []byte(value)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (kv *gdataKV) Clear(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !kv.m.ObjectPropExists(kv.owner, key) {
		return nil
	}
	if err := kv.m.DeleteObjectProp(kv.owner, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
