package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/hupe1980/ordmap"
)

func main() {
	seed := int64(4711)
	size := 1_000_000

	rng := rand.New(rand.NewSource(seed))

	m, err := ordmap.New(ordmap.WithCapacity(size))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("--- Insert ---")
	fmt.Println("Size:", size)

	start := time.Now()

	for i := 0; i < size; i++ {
		if _, _, err := m.Put(rng.Uint64(), uint64(i)); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Println("Elapsed:", time.Since(start))
	fmt.Println("Entries:", m.Len())

	fmt.Println("--- Order statistics ---")

	start = time.Now()

	median, _ := m.Select(m.Len() / 2)
	fmt.Println("Median key:", median.Key)

	rank, _ := m.Rank(median.Key)
	fmt.Println("Its rank:", rank)

	first, _ := m.First()
	last, _ := m.Last()
	fmt.Println("Key range:", first.Key, "-", last.Key)

	fmt.Println("Elapsed:", time.Since(start))

	fmt.Println("--- Verify ---")

	if err := m.Check(); err != nil {
		log.Fatal(err)
	}

	fmt.Println("OK")
}
