package main

import (
	"context"
	"flag"

	"github.com/cloudflare/cfssl/log"
	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/poolfund/chain"
	"github.com/poolfund/chaincode"
	"github.com/poolfund/client"
	"github.com/poolfund/config"
	"github.com/poolfund/event"
	"github.com/poolfund/levelDB"
	"github.com/poolfund/redis"
)

func main() {
	cfgPath := flag.String("c", "config/config.yaml", "config file path")
	asChaincode := flag.Bool("chaincode", false, "run as a fabric chaincode instead of a standalone node")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	level, _ := config.ParseLevel(cfg.Log.Level)
	log.Level = level

	if *asChaincode {
		if err := shim.Start(chaincode.New(cfg.Node.Contract)); err != nil {
			log.Fatalf("chaincode start failed: %s", err)
		}
		return
	}
	if err := Start(cfg); err != nil {
		log.Fatal(err)
	}
}

// Start 启动独立节点：levelDB 存储、事件推送和 http 接口
func Start(cfg *config.Config) error {
	var db *levelDB.DB
	var err error
	if cfg.Node.DataDir == "" {
		log.Warning("node.data_dir is empty, state will not survive restart")
		db, err = levelDB.OpenMem()
	} else {
		db, err = levelDB.Open(cfg.Node.DataDir)
	}
	if err != nil {
		return err
	}
	defer db.Close()

	hub := client.NewHub()
	sinks := []event.Sink{event.LogSink{}, hub}
	if cfg.Redis.Enabled {
		sink := redis.NewSink(redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.EventKey,
		})
		defer sink.Close()
		if err := sink.Ping(context.Background()); err != nil {
			log.Warningf("redis %s unavailable, events will only be logged until it recovers: %s", cfg.Redis.Addr, err)
		}
		sinks = append(sinks, sink)
	}

	host := chain.NewHost(db, sinks...)
	pool := chain.ContractAddress(cfg.Node.Contract)
	return client.NewServer(host, pool, hub, cfg.Client).Run()
}
