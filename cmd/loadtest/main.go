package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Result 记录单次请求的 HTTP 结果，便于聚合统计。
type Result struct {
	Status int
	Body   string
	Err    error
}

type envelope struct {
	Code  int             `json:"code"`
	Msg   string          `json:"msg"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	sameCart := flag.Int("same", 20, "concurrent checkouts of one cart")
	nUsers := flag.Int("users", 50, "distinct users racing for the same product")
	stock := flag.Int64("stock", 10, "initial stock for the oversell test")
	concurrency := flag.Int("c", 50, "max concurrency")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}
	run := uuid.NewString()[:8]

	// 1) 同一购物车并发结算：只能成功一次，其余 EMPTY_CART 或 409
	product, err := createProduct(client, *baseURL, "loadtest-"+run, "25.00", int64(*sameCart))
	must(err, "create product")
	userID, err := createUser(client, *baseURL, "same-"+run)
	must(err, "create user")
	must(addToCart(client, *baseURL, userID, product, 1), "add to cart")

	fmt.Printf("start same-cart test: user=%d requests=%d\n", userID, *sameCart)
	results := runConcurrent(*sameCart, *concurrency, func(int) Result {
		return checkout(client, *baseURL, userID)
	})
	counts := printSummary("same_cart", results)
	if counts[http.StatusOK] != 1 {
		fmt.Printf("FAIL: expected exactly one successful checkout, got %d\n", counts[http.StatusOK])
		os.Exit(1)
	}

	// 2) 不超卖：不同用户并发抢 stock 件
	product, err = createProduct(client, *baseURL, "oversell-"+run, "10.00", *stock)
	must(err, "create product")
	users := make([]uint, *nUsers)
	for i := range users {
		users[i], err = createUser(client, *baseURL, fmt.Sprintf("u%d-%s", i, run))
		must(err, "create user")
		must(addToCart(client, *baseURL, users[i], product, 1), "add to cart")
	}

	fmt.Printf("\nstart oversell test: product=%d users=%d stock=%d\n", product, *nUsers, *stock)
	results = runConcurrent(*nUsers, *concurrency, func(i int) Result {
		return checkout(client, *baseURL, users[i])
	})
	counts = printSummary("oversell", results)

	left, err := productStock(client, *baseURL, product)
	if err != nil {
		fmt.Println("stock check err:", err)
	} else {
		fmt.Println("final stock:", left)
		if left < 0 || int64(counts[http.StatusOK])+left != *stock {
			fmt.Printf("FAIL: sold=%d left=%d initial=%d\n", counts[http.StatusOK], left, *stock)
			os.Exit(1)
		}
	}
}

func runConcurrent(total, concurrency int, fn func(idx int) Result) []Result {
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]Result, total)

	for i := 0; i < total; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = fn(idx)
		}(i)
	}

	wg.Wait()
	return results
}

func checkout(client *http.Client, baseURL string, userID uint) Result {
	url := fmt.Sprintf("%s/api/orders/user/%d/address/1", baseURL, userID)
	resp, err := client.Post(url, "application/json", nil)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return Result{Status: resp.StatusCode, Body: string(body)}
}

// printSummary 聚合输出不同状态码和错误码分布。
func printSummary(name string, results []Result) map[int]int {
	count := map[int]int{}
	codes := map[string]int{}
	errCount := 0
	for _, r := range results {
		if r.Err != nil {
			errCount++
			continue
		}
		count[r.Status]++
		var env envelope
		if json.Unmarshal([]byte(r.Body), &env) == nil && env.Error != "" {
			codes[env.Error]++
		}
	}
	fmt.Printf("[%s] http status summary:\n", name)
	for _, code := range []int{200, 400, 404, 409, 429, 500, 502} {
		if count[code] > 0 {
			fmt.Printf("  %d -> %d\n", code, count[code])
		}
	}
	for code, n := range codes {
		fmt.Printf("  %s -> %d\n", code, n)
	}
	if errCount > 0 {
		fmt.Printf("  errors -> %d\n", errCount)
	}
	return count
}

func createUser(client *http.Client, baseURL, name string) (uint, error) {
	var u struct {
		ID uint `json:"id"`
	}
	err := doPOST(client, baseURL+"/api/users", map[string]any{"name": name, "email": name + "@loadtest.local"}, &u)
	return u.ID, err
}

func createProduct(client *http.Client, baseURL, name, price string, qty int64) (uint, error) {
	var p struct {
		ID uint `json:"id"`
	}
	err := doPOST(client, baseURL+"/api/products", map[string]any{"name": name, "price": price, "quantity": qty}, &p)
	return p.ID, err
}

func addToCart(client *http.Client, baseURL string, userID, productID uint, qty int64) error {
	url := fmt.Sprintf("%s/api/cart/%d/items", baseURL, userID)
	return doPOST(client, url, map[string]any{"product_id": productID, "quantity": qty}, nil)
}

// productStock 查询商品当前库存，用于压测后校验是否出现超卖。
func productStock(client *http.Client, baseURL string, productID uint) (int64, error) {
	resp, err := client.Get(baseURL + "/api/products")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}

	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return 0, err
	}
	var list []struct {
		ID       uint  `json:"id"`
		Quantity int64 `json:"quantity"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		return 0, err
	}
	for _, p := range list {
		if p.ID == productID {
			return p.Quantity, nil
		}
	}
	return 0, fmt.Errorf("product %d not found", productID)
}

// doPOST 发送 POST 请求，out 非空时解析 data 字段。
func doPOST(client *http.Client, url string, body any, out any) error {
	b, _ := json.Marshal(body)
	resp, err := client.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	return json.Unmarshal(env.Data, out)
}

func must(err error, what string) {
	if err != nil {
		fmt.Printf("%s: %v\n", what, err)
		os.Exit(1)
	}
}
