package santa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapWishlistLinks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "пустой текст",
			in:   "",
			want: "",
		},
		{
			name: "текст без ссылок",
			in:   "хочу теплые носки и книгу",
			want: "хочу теплые носки и книгу",
		},
		{
			name: "одна ссылка",
			in:   "https://ozon.ru/t/abc123",
			want: "[https://ozon.ru/t/abc123](https://ozon.ru/t/abc123)",
		},
		{
			name: "ссылка внутри текста",
			in:   "вот вишлист http://example.com/list смотри",
			want: "вот вишлист [http://example.com/list](http://example.com/list) смотри",
		},
		{
			name: "несколько ссылок",
			in:   "https://a.ru и https://b.ru",
			want: "[https://a.ru](https://a.ru) и [https://b.ru](https://b.ru)",
		},
		{
			name: "ссылка на отдельной строке",
			in:   "носки\nhttps://shop.ru/item\nкнига",
			want: "носки\n[https://shop.ru/item](https://shop.ru/item)\nкнига",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WrapWishlistLinks(tt.in))
		})
	}
}
