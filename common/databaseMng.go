// Copyright (C) 2020 Finogeeks Co., Ltd
//
// This program is free software: you can redistribute it and/or  modify
// it under the terms of the GNU Affero General Public License, version 3,
// as published by the Free Software Foundation.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package common

import (
	"errors"
	"log"
	"sync"

	mon "github.com/watcha-fr/synapse-sub000/skunkworks/monitor/go-client/monitor"
	"github.com/watcha-fr/synapse-sub000/storage/model"
)

// DBConfig resolves the connection settings of a named database.
type DBConfig interface {
	GetDBConfig(name string) (driver, address string, logQueries bool)
}

type newDBFunc func(driver, address string, logQueries bool) (interface{}, error)

var (
	regMu      sync.RWMutex
	dbMap      sync.Map
	newHandler = make(map[string]newDBFunc)
	histogram  mon.LabeledHistogram
	once       sync.Once
)

//can't use skunkworks log
func Register(name string, f func(driver, address string, logQueries bool) (interface{}, error)) {
	regMu.Lock()
	defer regMu.Unlock()

	log.Printf("DatabaseMng Register: %s\n", name)
	if f == nil {
		log.Panicf("DatabaseMng Register: %s func nil\n", name)
	}

	if _, ok := newHandler[name]; ok {
		log.Panicf("DatabaseMng Register: %s already registered\n", name)
	}

	newHandler[name] = f
}

// GetDBInstance opens the named database once and returns the same instance
// on later calls.
func GetDBInstance(name string, cfg DBConfig) (interface{}, error) {
	regMu.RLock()
	f := newHandler[name]
	regMu.RUnlock()
	if f == nil {
		return nil, errors.New("unknown db " + name)
	}

	val, ok := dbMap.Load(name)
	if ok {
		return val, nil
	}

	driver, address, logQueries := cfg.GetDBConfig(name)
	val, err := f(driver, address, logQueries)
	if err != nil {
		return nil, err
	}
	val, _ = dbMap.LoadOrStore(name, val)

	if dbMon, ok := val.(model.DBMonitor); ok {
		dbMon.SetMonitor(GetHistogramInstance())
	}

	return val, nil
}

func GetHistogramInstance() mon.LabeledHistogram {
	monitor := mon.GetInstance()

	once.Do(func() {
		histogram = monitor.NewLabeledHistogram("storage_query_duration_millisecond", []string{"process"}, nil)
	})
	return histogram
}
