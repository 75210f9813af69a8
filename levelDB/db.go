package levelDB

import (
	"sync"

	"github.com/cloudflare/cfssl/log"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/poolfund/state"
)

// DB 对 goleveldb 的封装，所有写操作都通过 Txn 完成
type DB struct {
	db   *leveldb.DB
	once sync.Once
}

// Open 打开（或创建）path 下的数据库
func Open(path string) (*DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		log.Error("db init err:", err)
		return nil, err
	}
	return &DB{db: db}, nil
}

// OpenMem 打开一个内存数据库，测试和临时节点使用
func OpenMem() (*DB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	var err error
	d.once.Do(func() {
		err = d.db.Close()
	})
	return err
}

// Begin 开启一个事务。goleveldb 同一时间只允许一个事务，调用方负责串行化
func (d *DB) Begin() (*Txn, error) {
	tr, err := d.db.OpenTransaction()
	if err != nil {
		log.Error("db open transaction err:", err)
		return nil, err
	}
	return &Txn{tr: tr}, nil
}

func (d *DB) Get(key []byte) ([]byte, error) {
	data, err := d.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, state.ErrNotFound
	}
	return data, err
}

// Txn 实现 state.KV，Commit 之前的写入对外不可见
type Txn struct {
	tr   *leveldb.Transaction
	done bool
}

func (t *Txn) Get(key []byte) ([]byte, error) {
	data, err := t.tr.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, state.ErrNotFound
	}
	return data, err
}

func (t *Txn) Has(key []byte) (bool, error) {
	return t.tr.Has(key, nil)
}

func (t *Txn) Put(key, value []byte) error {
	if err := t.tr.Put(key, value, nil); err != nil {
		log.Error("db put err:", err)
		return err
	}
	return nil
}

func (t *Txn) Commit() error {
	t.done = true
	return t.tr.Commit()
}

// Discard 丢弃事务内的全部写入，Commit 之后调用无副作用
func (t *Txn) Discard() {
	if t.done {
		return
	}
	t.done = true
	t.tr.Discard()
}
