package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/John-Robertt/wikimdb/internal/app/lookup"
	"github.com/John-Robertt/wikimdb/internal/config"
	"github.com/John-Robertt/wikimdb/internal/infra/httpx"
	"github.com/John-Robertt/wikimdb/internal/infra/logx"
	"github.com/John-Robertt/wikimdb/internal/metrics"
	"github.com/John-Robertt/wikimdb/internal/upstream"
	"github.com/John-Robertt/wikimdb/internal/upstream/entity"
	"github.com/John-Robertt/wikimdb/internal/upstream/statement"
)

// app 是按生效配置装配好的运行时依赖。
type app struct {
	eff     config.EffectiveConfig
	log     *slog.Logger
	svc     *lookup.Service
	metrics *metrics.Metrics
}

func newApp(eff config.EffectiveConfig, stderr io.Writer, withMetrics bool) (*app, error) {
	log := logx.New(stderr, eff.LogLevel)

	reg, err := upstream.NewRegistry(statement.Adapter{}, entity.Adapter{})
	if err != nil {
		return nil, fmt.Errorf("初始化 adapter registry 失败：%w", err)
	}

	hc, err := httpx.NewClient(httpx.Options{
		ProxyURL:  eff.ProxyURL,
		Timeout:   eff.Timeout,
		UserAgent: eff.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("proxy.url 无效：%w", err)
	}
	client, err := upstream.NewClient(eff.Endpoint, hc, "")
	if err != nil {
		return nil, err
	}

	obs := lookup.MultiObserver{lookup.LogObserver{Logger: log}}
	var m *metrics.Metrics
	if withMetrics {
		m = metrics.New()
		obs = append(obs, m)
	}

	return &app{
		eff: eff,
		log: log,
		svc: &lookup.Service{
			Registry:        reg,
			Schema:          eff.Schema,
			Client:          client,
			MediaHost:       eff.MediaHost,
			DefaultLanguage: eff.DefaultLanguage,
			Observer:        obs,
		},
		metrics: m,
	}, nil
}
